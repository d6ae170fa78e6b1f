// Package preset loads named crop placements from disk.
package preset

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/croprig/croprig/internal/cropbox"
)

// Set holds named crop placements. Presets feed box construction only;
// nothing here writes back to disk.
type Set struct {
	offsets map[string]cropbox.Offset
}

// Defaults returns the built-in presets used when no file is present.
func Defaults() *Set {
	return &Set{offsets: map[string]cropbox.Offset{
		"full":   {Left: 0, Top: 0, Width: 100, Height: 100, Unit: cropbox.UnitPercent},
		"center": {Left: 25, Top: 25, Width: 50, Height: 50, Unit: cropbox.UnitPercent},
		"wide":   {Left: 5, Top: 25, Width: 90, Height: 50, Unit: cropbox.UnitPercent},
	}}
}

// Load reads a YAML preset file mapping names to placements. A missing file
// falls back to the built-in defaults.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, err
	}
	offsets := map[string]cropbox.Offset{}
	if err := yaml.Unmarshal(data, &offsets); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	return &Set{offsets: offsets}, nil
}

// Get returns the placement registered under name.
func (s *Set) Get(name string) (cropbox.Offset, bool) {
	off, ok := s.offsets[name]
	return off, ok
}

// Names returns the preset names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.offsets))
	for name := range s.offsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of presets.
func (s *Set) Len() int {
	return len(s.offsets)
}
