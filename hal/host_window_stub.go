//go:build !cgo

package hal

import "fmt"

func RunWindow(_ *Loop, _ *Box, _ WindowConfig, _ func() error) error {
	return fmt.Errorf("window mode requires cgo (build with CGO_ENABLED=1, or use -headless): %w", ErrNotImplemented)
}
