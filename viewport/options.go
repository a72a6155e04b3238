package viewport

import "context"

// DefaultBackground is used when no background, or an invalid one, is given.
const DefaultBackground = "#101012"

// DefaultAutoRotateSpeed is the idle rotation speed; 2.0 is one turn every
// 30 seconds at 60 frames per second.
const DefaultAutoRotateSpeed = 1.2

// Options configure a session at creation.
type Options struct {
	// Src is the model to load right away. Empty means none.
	Src string
	// Background is a "#rgb"/"#rrggbb" hex color or a CSS color name.
	Background string

	// DisableAutoRotate starts the session without idle rotation.
	DisableAutoRotate bool
	// AutoRotateSpeed of 0 means DefaultAutoRotateSpeed.
	AutoRotateSpeed float64

	// CameraDistance fixes the camera's distance to a loaded model, clamped
	// to the orbit range [0.05, 1000]. Values <= 0 fit the model to the view
	// instead.
	CameraDistance float64

	// PixelRatio is the number of rendered pixels per container pixel.
	// Values <= 0 mean 1.
	PixelRatio float64
}

// DefaultOptions returns the options an empty Options resolves to.
func DefaultOptions() Options {
	return Options{
		Background:      DefaultBackground,
		AutoRotateSpeed: DefaultAutoRotateSpeed,
		PixelRatio:      1,
	}
}

func (o Options) withDefaults() Options {
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.AutoRotateSpeed == 0 {
		o.AutoRotateSpeed = DefaultAutoRotateSpeed
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = 1
	}
	return o
}

// Handle is the instance API a host page holds for one viewport.
type Handle interface {
	// SetSrc replaces the displayed model with the one at src.
	SetSrc(ctx context.Context, src string) error
	SetBackground(color string)
	// SetAutoRotate toggles idle rotation. A speed, if given, replaces the
	// current one.
	SetAutoRotate(enabled bool, speed ...float64)
	// Dispose releases everything the viewport holds. It is idempotent.
	Dispose()
}

var _ Handle = (*Session)(nil)
