package app

import (
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/croprig/croprig/internal/export"
	"github.com/croprig/croprig/internal/web"
)

// RegisterRoutes wires the API, websocket, and static handlers onto the mux.
// staticDir overrides the embedded assets when it names an existing
// directory, which keeps client iteration out of the rebuild loop.
func (a *App) RegisterRoutes(mux *http.ServeMux, staticDir string) {
	if staticDir == "" {
		staticDir = filepath.Join("internal", "web", "static")
	}

	mux.HandleFunc("/login", a.handleLogin)
	mux.HandleFunc("/logout", a.handleLogout)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/presets", a.handlePresets)
	mux.HandleFunc("/api/export", a.handleExport)
	mux.HandleFunc("/content", a.handleContent)
	mux.Handle("/ws/control", a.Control())
	if s := a.Signaling(); s != nil {
		mux.Handle("/ws/signal", s)
	}
	if stream := a.PreviewStream(); stream != nil {
		mux.HandleFunc("/preview.mjpeg", stream.Handler)
	}
	mux.HandleFunc("/favicon.ico", handleFavicon)

	mux.Handle("/", staticFileServer(staticDir))
}

type loginRequest struct {
	Password string `json:"password"`
}

type stateResponse struct {
	Authenticated bool     `json:"authenticated"`
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	MinWidth      float64  `json:"minWidth"`
	MinHeight     float64  `json:"minHeight"`
	Inner         wireRect `json:"inner"`
	Outer         wireRect `json:"outer"`
	Presets       []string `json:"presets"`
}

// handleLogin authenticates the session.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !a.session.Authenticate(req.Password) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleLogout clears authentication state.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.session.Logout()
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleState returns the current crop state and the available presets.
func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	st := a.session.State()
	inner, outer := toWire(st.Snapshot)
	resp := stateResponse{
		Authenticated: st.Authenticated,
		Source:        a.src.Kind(),
		Target:        st.Target.String(),
		MinWidth:      st.MinWidth,
		MinHeight:     st.MinHeight,
		Inner:         inner,
		Outer:         outer,
		Presets:       a.presets.Names(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handlePresets returns the preset names.
func (a *App) handlePresets(w http.ResponseWriter, _ *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.presets.Names())
}

// handleExport renders the current crop selection as an image download.
// Query parameters: format (png|jpeg), w, h (target size, one side may be
// derived), quality (JPEG only).
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	q := r.URL.Query()
	opts := export.Options{
		Format:  export.ParseFormat(q.Get("format")),
		Width:   queryInt(q.Get("w")),
		Height:  queryInt(q.Get("h")),
		Quality: queryInt(q.Get("quality")),
		MaxDim:  a.cfg.ExportMaxDim,
	}

	img, err := export.Render(r.Context(), a.src, a.session.Snapshot(), opts)
	if err != nil {
		log.Printf("app: export: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	if opts.Format == export.FormatJPEG {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Disposition", `attachment; filename="crop.jpg"`)
	} else {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="crop.png"`)
	}
	if err := export.Encode(w, img, opts.Format, opts.Quality); err != nil {
		log.Printf("app: export encode: %v", err)
	}
}

// handleContent serves the full source frame the client crops against.
func (a *App) handleContent(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	frame, err := a.src.Frame(r.Context())
	if err != nil {
		log.Printf("app: content frame: %v", err)
		http.Error(w, "content unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, frame); err != nil {
		log.Printf("app: content encode: %v", err)
	}
}

// requireAuth writes an error and returns false when unauthenticated.
func (a *App) requireAuth(w http.ResponseWriter) bool {
	if !a.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// queryInt parses a positive query integer, zero for absent or bad input.
func queryInt(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// staticFileServer serves static assets, preferring disk then embed.
func staticFileServer(staticDir string) http.Handler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	embedded, err := web.StaticFS()
	if err != nil {
		log.Printf("static assets unavailable: %v", err)
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
