// Package control handles the crop control websocket protocol.
package control

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/croprig/croprig/internal/drag"
	"github.com/croprig/croprig/internal/preset"
	"github.com/croprig/croprig/internal/session"
	"github.com/gorilla/websocket"
)

// Server handles the websocket that drives the crop box.
type Server struct {
	mu       sync.Mutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	session  *session.Session
	presets  *preset.Set
	conn     *websocket.Conn
}

// NewServer creates a control websocket server bound to a crop session.
func NewServer(sess *session.Session, presets *preset.Set) *Server {
	return &Server{
		session: sess,
		presets: presets,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and processes control messages.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := s.acceptConn(conn); err != nil {
		s.rejectConn(conn, err.Error())
		return
	}
	defer s.cleanupConn(conn)

	unsub := s.session.Subscribe(func(e session.Event) {
		s.pushEvent(conn, e)
	})
	defer unsub()
	s.sendState(conn)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.handleMessage(msg)
	}
}

// acceptConn ensures only one active control connection exists.
func (s *Server) acceptConn(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("control connection already active")
	}
	s.conn = conn
	return nil
}

// rejectConn sends a policy violation close and closes the socket.
func (s *Server) rejectConn(conn *websocket.Conn, reason string) {
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(1*time.Second))
	_ = conn.Close()
}

// cleanupConn clears the active connection and aborts any gesture the
// departed controller left running. The session call happens outside the
// server mutex so it cannot invert the event push lock order.
func (s *Server) cleanupConn(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	s.session.CancelGesture()
	_ = conn.Close()
}

// handleMessage dispatches a single control message. Unknown message types
// and malformed payloads are dropped, matching the engine's clamp-never-fail
// posture.
func (s *Server) handleMessage(msg Message) {
	switch msg.T {
	case "outer":
		if msg.Outer != nil {
			s.session.SetOuter(msg.Outer.rect())
		}
	case "offset":
		if msg.Offset != nil {
			s.session.ApplyOffset(msg.Offset.offset())
		}
	case "preset":
		s.handlePreset(msg.Name)
	case "down":
		s.handlePointerDown(msg)
	case "move":
		s.session.PointerMove(msg.ID, msg.X, msg.Y)
	case "up":
		s.session.PointerUp(msg.ID, msg.X, msg.Y)
	case "cancel":
		s.session.CancelGesture()
	}
}

// handlePointerDown starts a gesture on the named handle.
func (s *Server) handlePointerDown(msg Message) {
	target, ok := drag.ParseTarget(msg.Target)
	if !ok {
		return
	}
	s.session.PointerDown(target, msg.ID, msg.X, msg.Y)
}

// handlePreset re-places the crop box from a named preset.
func (s *Server) handlePreset(name string) {
	off, ok := s.presets.Get(name)
	if !ok {
		return
	}
	s.session.ApplyOffset(off)
}

// pushEvent forwards a session event to the controller. It runs inside the
// session lock and must only write to the socket.
func (s *Server) pushEvent(conn *websocket.Conn, e session.Event) {
	msg, ok := eventMessage(e)
	if !ok {
		return
	}
	_ = s.sendTo(conn, msg)
}

// sendState pushes the current crop state to a freshly accepted controller.
func (s *Server) sendState(conn *websocket.Conn) {
	st := s.session.State()
	_ = s.sendTo(conn, Message{
		T:      "state",
		Target: string(st.Target),
		Inner:  wireRect(st.Snapshot.Inner),
		Outer:  wireRect(st.Snapshot.Outer),
	})
}

// sendTo writes a message to the active connection.
func (s *Server) sendTo(conn *websocket.Conn, msg Message) error {
	s.mu.Lock()
	active := s.conn
	s.mu.Unlock()
	if active != conn {
		return fmt.Errorf("connection not active")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(msg)
}
