// Package app is the viewer's host page: it mounts a viewport session in a
// container, feeds it models and maps keys to session operations.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"folio/engine"
	"folio/engine/loader"
	"folio/hal"
	"folio/viewport"
)

// ErrQuit is returned by Step when the user asks to leave.
var ErrQuit = errors.New("app: quit")

var backgrounds = []string{viewport.DefaultBackground, "#000000", "slategray", "white"}

// App owns at most one mounted session at a time.
type App struct {
	cfg    Config
	log    *zap.Logger
	host   hal.Host
	box    *hal.Box
	loader loader.Loader

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	session    *viewport.Session
	models     []string
	model      int
	background int
	rotate     bool
	switched   time.Time
	now        func() time.Time
}

// New creates an app that mounts sessions into box.
func New(cfg Config, log *zap.Logger, host hal.Host, box *hal.Box, ldr loader.Loader) *App {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:    cfg,
		log:    log,
		host:   host,
		box:    box,
		loader: ldr,
		ctx:    ctx,
		cancel: cancel,
		models: cfg.Playlist(),
		rotate: cfg.AutoRotate,
		now:    time.Now,
	}
}

// Mounted reports whether a session is live.
func (a *App) Mounted() bool { return a.session != nil }

// Current returns the model the app last asked for.
func (a *App) Current() string { return a.models[a.model] }

// Mount creates a session showing the current model. It is a no-op when a
// session is already mounted.
func (a *App) Mount() error {
	if a.session != nil {
		return nil
	}
	opts := a.cfg.Options(a.Current())
	opts.Background = a.backgroundColor()
	opts.DisableAutoRotate = !a.rotate
	s, err := viewport.Create(a.host, a.box, opts, a.loader)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	a.session = s
	a.switched = a.now()
	a.log.Info("mounted", zap.String("session", s.ID()), zap.String("src", opts.Src))
	return nil
}

// Unmount disposes the mounted session, if any.
func (a *App) Unmount() {
	if a.session == nil {
		return
	}
	id := a.session.ID()
	a.session.Dispose()
	a.session = nil
	a.log.Info("unmounted", zap.String("session", id))
}

// Next advances to the next model. The load runs in the background.
func (a *App) Next() {
	a.model = (a.model + 1) % len(a.models)
	a.switched = a.now()
	if a.session == nil {
		return
	}
	src, s := a.Current(), a.session
	a.loads.Add(1)
	go func() {
		defer a.loads.Done()
		start := time.Now()
		err := s.SetSrc(a.ctx, src)
		switch {
		case err == nil:
			a.log.Info("model shown", zap.String("src", src), zap.Duration("took", time.Since(start)))
		case errors.Is(err, viewport.ErrSuperseded), errors.Is(err, viewport.ErrDisposed), errors.Is(err, context.Canceled):
			a.log.Debug("model skipped", zap.String("src", src), zap.Error(err))
		default:
			a.log.Error("model failed", zap.String("src", src), zap.Error(err))
		}
	}()
}

// ToggleAutoRotate flips idle rotation.
func (a *App) ToggleAutoRotate() {
	a.rotate = !a.rotate
	if a.session != nil {
		a.session.SetAutoRotate(a.rotate)
	}
}

// CycleBackground switches to the next background color.
func (a *App) CycleBackground() {
	a.background = (a.background + 1) % len(backgrounds)
	if a.session != nil {
		a.session.SetBackground(a.backgroundColor())
	}
}

// backgroundColor returns the configured background until the user cycles.
func (a *App) backgroundColor() string {
	if a.background == 0 {
		return a.cfg.Background
	}
	return backgrounds[a.background]
}

// Step handles queued keys and the model cycle timer. The hosts call it once
// per frame.
func (a *App) Step() error {
	for drained := false; !drained; {
		select {
		case ev := <-a.box.Keys():
			if err := a.handleKey(ev); err != nil {
				return err
			}
		default:
			drained = true
		}
	}
	if a.cfg.Cycle > 0 && len(a.models) > 1 && a.now().Sub(a.switched) >= a.cfg.Cycle {
		a.Next()
	}
	return nil
}

func (a *App) handleKey(ev hal.KeyEvent) error {
	if !ev.Press {
		return nil
	}
	if ev.Code == hal.KeyEscape {
		return ErrQuit
	}
	switch ev.Rune {
	case 'n':
		a.Next()
	case 'r':
		a.ToggleAutoRotate()
	case 'b':
		a.CycleBackground()
	case 'u':
		if a.session != nil {
			a.Unmount()
			return nil
		}
		return a.Mount()
	}
	return nil
}

// Snapshot writes the container's current picture to path as PNG.
func (a *App) Snapshot(path string) error {
	bg, _ := engine.ParseColor(viewport.DefaultBackground)
	img := a.box.Composite(nil, engine.ParseColorOr(a.backgroundColor(), bg))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: %w", err)
	}
	return f.Close()
}

// Close unmounts and waits for background loads to finish.
func (a *App) Close() {
	a.cancel()
	a.Unmount()
	a.loads.Wait()
}
