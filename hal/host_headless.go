package hal

import (
	"context"
	"fmt"
	"time"
)

// RunHeadless steps loop at cfg.Hz without opening a window, calling step
// after each frame. It returns when ctx is done, step fails or cfg.Ticks
// frames have run.
func RunHeadless(ctx context.Context, loop *Loop, cfg HeadlessConfig, step func() error) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			loop.Step()
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
