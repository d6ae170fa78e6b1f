// Package term hosts the crop session in a fullscreen terminal. The screen
// cells are the content box: mouse drags drive the same session the web
// client talks to, which keeps all clamping on the engine side.
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/geom"
	"github.com/croprig/croprig/internal/session"
)

const (
	// DefaultMinWidth is the cell-unit minimum crop width for terminal hosts.
	DefaultMinWidth = 4
	// DefaultMinHeight is the cell-unit minimum crop height.
	DefaultMinHeight = 2
	// pointerID tags the single terminal mouse pointer.
	pointerID = 1
)

// Host renders the crop rectangle on a tcell screen and feeds mouse events
// into the session.
type Host struct {
	scr  tcell.Screen
	sess *session.Session

	mu      sync.Mutex
	snap    cropbox.Snapshot
	pressed bool
}

// Run takes over the terminal until the user quits with Esc or q.
func Run(sess *session.Session) error {
	scr, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("term: create screen: %w", err)
	}
	if err := scr.Init(); err != nil {
		return fmt.Errorf("term: init screen: %w", err)
	}
	defer scr.Fini()

	h := &Host{scr: scr, sess: sess}
	return h.loop()
}

// loop runs the event loop. Session events arrive as interrupt wakeups so
// redraws happen on this goroutine only.
func (h *Host) loop() error {
	h.scr.EnableMouse(tcell.MouseMotionEvents)
	defer h.scr.DisableMouse()

	unsub := h.sess.Subscribe(func(e session.Event) {
		h.mu.Lock()
		h.snap = e.Snapshot
		h.mu.Unlock()
		_ = h.scr.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer unsub()

	h.announceSize()
	h.draw()

	for {
		switch ev := h.scr.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			h.scr.Sync()
			h.announceSize()
			h.draw()
		case *tcell.EventInterrupt:
			h.draw()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
				h.sess.CancelGesture()
				return nil
			}
		case *tcell.EventMouse:
			h.handleMouse(ev)
			h.draw()
		}
	}
}

// announceSize tells the session the terminal is the outer box. The session
// rebuilds only when the size actually changed.
func (h *Host) announceSize() {
	w, hgt := h.scr.Size()
	h.sess.SetOuter(geom.FromSize(0, 0, float64(w), float64(hgt)))
}

// handleMouse converts a tcell mouse event into pointer traffic.
func (h *Host) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	fx, fy := float64(x), float64(y)
	held := ev.Buttons()&tcell.Button1 != 0

	h.mu.Lock()
	wasPressed := h.pressed
	h.pressed = held
	snap := h.snap
	h.mu.Unlock()

	switch {
	case held && !wasPressed:
		target := HitTest(snap.Inner, fx, fy, 1)
		if target == "" {
			h.mu.Lock()
			h.pressed = false
			h.mu.Unlock()
			return
		}
		h.sess.PointerDown(target, pointerID, fx, fy)
	case held:
		h.sess.PointerMove(pointerID, fx, fy)
	case wasPressed:
		h.sess.PointerUp(pointerID, fx, fy)
	}
}

// draw repaints the selection over a dotted backdrop.
func (h *Host) draw() {
	h.mu.Lock()
	snap := h.snap
	h.mu.Unlock()

	h.scr.Clear()
	w, hgt := h.scr.Size()

	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for y := 0; y < hgt; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%4 == 0 {
				h.scr.SetContent(x, y, '·', nil, dim)
			}
		}
	}

	box := snap.Inner.ImageRect()
	style := tcell.StyleDefault.Foreground(tcell.ColorTeal)
	handle := style.Bold(true)
	for x := box.Min.X; x <= box.Max.X; x++ {
		h.scr.SetContent(x, box.Min.Y, tcell.RuneHLine, nil, style)
		h.scr.SetContent(x, box.Max.Y, tcell.RuneHLine, nil, style)
	}
	for y := box.Min.Y; y <= box.Max.Y; y++ {
		h.scr.SetContent(box.Min.X, y, tcell.RuneVLine, nil, style)
		h.scr.SetContent(box.Max.X, y, tcell.RuneVLine, nil, style)
	}
	for _, p := range [][2]int{
		{box.Min.X, box.Min.Y}, {box.Max.X, box.Min.Y},
		{box.Min.X, box.Max.Y}, {box.Max.X, box.Max.Y},
	} {
		h.scr.SetContent(p[0], p[1], '█', nil, handle)
	}

	status := fmt.Sprintf(" %dx%d at %d,%d  (drag to adjust, q to quit) ",
		box.Dx(), box.Dy(), box.Min.X, box.Min.Y)
	for i, r := range status {
		if i >= w {
			break
		}
		h.scr.SetContent(i, hgt-1, r, nil, tcell.StyleDefault.Reverse(true))
	}
	h.scr.Show()
}
