package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/croprig/croprig/internal/cropbox"
)

// TestLoad_ParsesYAMLFile verifies a preset file maps names to placements.
func TestLoad_ParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := "banner:\n  left: 0\n  top: 40\n  width: 100\n  height: 20\n  unit: \"%\"\n" +
		"thumb:\n  left: 10\n  top: 10\n  width: 64\n  height: 64\n  unit: px\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	banner, ok := set.Get("banner")
	if !ok {
		t.Fatalf("expected banner preset to exist")
	}
	want := cropbox.Offset{Left: 0, Top: 40, Width: 100, Height: 20, Unit: cropbox.UnitPercent}
	if banner != want {
		t.Fatalf("expected %+v, got %+v", want, banner)
	}
	thumb, ok := set.Get("thumb")
	if !ok || thumb.Unit != cropbox.UnitPx {
		t.Fatalf("expected pixel thumb preset, got %+v ok=%v", thumb, ok)
	}
}

// TestLoad_MissingFile_ReturnsDefaults verifies the built-ins cover a
// missing preset file.
func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if set.Len() == 0 {
		t.Fatalf("expected built-in presets, got none")
	}
	if _, ok := set.Get("center"); !ok {
		t.Fatalf("expected a center preset among the defaults")
	}
}

// TestLoad_BadYAML_ReturnsError verifies parse failures surface.
func TestLoad_BadYAML_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}

// TestNames_Sorted verifies the listing order is deterministic.
func TestNames_Sorted(t *testing.T) {
	names := Defaults().Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("expected sorted names, got %#v", names)
		}
	}
}
