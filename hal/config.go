package hal

import "image/color"

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64 // 0 runs until cancelled
}

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Title      string
	Width      int
	Height     int
	Background color.Color
}
