package app

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/croprig/croprig/internal/config"
	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/preset"
	"github.com/croprig/croprig/internal/session"
	"github.com/croprig/croprig/internal/signaling"
	"github.com/croprig/croprig/internal/source"
)

// newTestApp builds an app over a 200x100 test pattern with a centered crop.
func newTestApp(t *testing.T) *App {
	t.Helper()
	src := source.NewPattern(200, 100)
	sess := session.New(session.Options{
		Password: "pw",
		Outer:    src.Bounds(),
		Initial:  &cropbox.Offset{Left: 25, Top: 25, Width: 50, Height: 50, Unit: cropbox.UnitPercent},
	})
	t.Cleanup(sess.Close)
	cfg := config.Config{ExportMaxDim: 4096}
	a, err := New(cfg, sess, src, preset.Defaults(), nil, nil, signaling.ViewerReject)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

// TestHandleState_Unauthorized verifies /api/state requires authentication.
func TestHandleState_Unauthorized(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestHandleLogin_RejectsWrongPassword verifies a bad password stays
// unauthenticated.
func TestHandleLogin_RejectsWrongPassword(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"password":"nope"}`))
	rec := httptest.NewRecorder()
	a.handleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if a.session.IsAuthenticated() {
		t.Fatalf("expected session to stay unauthenticated")
	}
}

// TestHandleState_ReturnsCropState verifies the state payload carries the
// placed rectangles and the preset names.
func TestHandleState_ReturnsCropState(t *testing.T) {
	a := newTestApp(t)
	if !a.session.Authenticate("pw") {
		t.Fatalf("expected authenticate success")
	}

	rec := httptest.NewRecorder()
	a.handleState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source != "pattern" || !resp.Authenticated {
		t.Fatalf("unexpected response: %+v", resp)
	}
	want := wireRect{Left: 50, Top: 25, Right: 150, Bottom: 75}
	if resp.Inner != want {
		t.Fatalf("expected inner %+v, got %+v", want, resp.Inner)
	}
	if len(resp.Presets) == 0 {
		t.Fatalf("expected preset names in state")
	}
}

// TestHandleExport_ScalesCrop verifies the export endpoint crops the source
// and derives the missing output side from the crop aspect.
func TestHandleExport_ScalesCrop(t *testing.T) {
	a := newTestApp(t)
	if !a.session.Authenticate("pw") {
		t.Fatalf("expected authenticate success")
	}

	rec := httptest.NewRecorder()
	a.handleExport(rec, httptest.NewRequest(http.MethodGet, "/api/export?format=png&w=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	// The crop is 100x50, so w=50 derives h=25.
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Fatalf("expected 50x25 export, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

// TestHandleContent_ServesSourceFrame verifies /content returns the full
// source image.
func TestHandleContent_ServesSourceFrame(t *testing.T) {
	a := newTestApp(t)
	if !a.session.Authenticate("pw") {
		t.Fatalf("expected authenticate success")
	}

	rec := httptest.NewRecorder()
	a.handleContent(rec, httptest.NewRequest(http.MethodGet, "/content", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Fatalf("expected 200x100 content, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

// TestRegisterRoutes_SkipsDisabledLanes verifies the optional handlers stay
// off the mux when their pipelines are disabled.
func TestRegisterRoutes_SkipsDisabledLanes(t *testing.T) {
	a := newTestApp(t)
	mux := http.NewServeMux()
	a.RegisterRoutes(mux, t.TempDir())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview.mjpeg", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for disabled preview, got %d", rec.Code)
	}
}
