//go:build !windows

// Package monitor describes display geometry and enumeration.
package monitor

import "fmt"

// ListMonitors returns ErrUnsupported outside Windows.
func ListMonitors() ([]Monitor, error) {
	return nil, fmt.Errorf("list monitors: %w", ErrUnsupported)
}
