// Package viewport manages the lifecycle of an embeddable 3D model view.
//
// A Session binds one renderer canvas to one container. It owns the scene,
// camera, orbit controls and the displayed model, keeps rendering once per
// host frame, follows the container's size and swaps models on request.
//
// Every scene mutation happens on the session's own goroutine. Exported
// methods hand work to that goroutine and wait for it, so they are safe to
// call from any goroutine.
package viewport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"folio/engine"
	"folio/engine/loader"
	"folio/hal"
)

// Scene defaults.
const (
	cameraFOV  = 45
	cameraNear = 0.01
	cameraFar  = 2000

	dampingFactor = 0.06
	minDistance   = 0.05
	maxDistance   = 1000

	// fitMargin leaves room around an auto-framed model.
	fitMargin = 1.25
)

var (
	initialCameraPosition = engine.V3(0, 0.75, 3)
	fallbackColor         = engine.Hex(0xb0b0b0)
)

// Session is a live viewport. Create one with Create and release it with
// Dispose.
type Session struct {
	id  string
	log *zap.Logger

	host      hal.Host
	container hal.Container
	loader    loader.Loader
	opts      Options

	ctx    context.Context // cancelled by Dispose; bounds every load
	cancel context.CancelFunc

	inbox       chan func()
	done        chan struct{}
	disposeOnce sync.Once

	// Owned by the session goroutine.
	scene    *engine.Scene
	camera   *engine.PerspectiveCamera
	controls *engine.OrbitControls
	renderer *engine.Renderer
	model    *engine.Object
	frames   hal.FrameSubscription
	resize   hal.ResizeObservation
	pointer  <-chan hal.PointerEvent
	seq      uint64 // latest issued load
	disposed bool

	dragging     bool
	lastX, lastY float32
}

// Create builds a viewport inside container and starts rendering.
//
// It fails only for nil arguments. If opts.Src is set the model starts
// loading in the background; a failure is logged and leaves the view empty.
func Create(host hal.Host, container hal.Container, opts Options, ldr loader.Loader) (*Session, error) {
	switch {
	case host == nil:
		return nil, errNilHost
	case container == nil:
		return nil, errNilContainer
	case ldr == nil:
		return nil, errNilLoader
	}
	opts = opts.withDefaults()

	s := &Session{
		id:        uuid.NewString(),
		host:      host,
		container: container,
		loader:    ldr,
		opts:      opts,
		inbox:     make(chan func()),
		done:      make(chan struct{}),
	}
	s.log = Logger().With(zap.String("session", s.id))
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.scene = engine.NewScene(parseBackground(opts.Background, s.log))
	s.renderer = engine.NewRenderer()
	s.renderer.SetPixelRatio(float32(opts.PixelRatio))
	container.AppendChild(s.renderer.Canvas())

	s.camera = engine.NewPerspectiveCamera(cameraFOV, 1, cameraNear, cameraFar)
	s.camera.Position = initialCameraPosition

	s.controls = engine.NewOrbitControls(s.camera)
	s.controls.EnableDamping = true
	s.controls.DampingFactor = dampingFactor
	s.controls.MinDistance = minDistance
	s.controls.MaxDistance = maxDistance
	s.controls.AutoRotate = !opts.DisableAutoRotate
	s.controls.AutoRotateSpeed = float32(opts.AutoRotateSpeed)

	s.scene.AddLight(engine.NewAmbientLight(engine.Hex(0xffffff), 0.5))
	dir := engine.NewDirectionalLight(engine.Hex(0xffffff), 0.9)
	dir.Position = engine.V3(5, 8, 5)
	s.scene.AddLight(dir)
	s.scene.AddLight(engine.NewHemisphereLight(engine.Hex(0x8888ff), engine.Hex(0x222211), 0.35))

	s.resize = host.ObserveResize(container)
	s.applySize(container.ContentBox())
	if ps, ok := container.(hal.PointerSource); ok {
		s.pointer = ps.Pointer()
	}
	s.frames = host.RequestFrames()

	var initial <-chan error
	if opts.Src != "" {
		initial = s.startLoad(s.nextLoad(), opts.Src)
	}

	go s.run()

	if initial != nil {
		go func() {
			if err := <-initial; err != nil {
				s.log.Error("initial model load failed", zap.String("src", opts.Src), zap.Error(err))
			}
		}()
	}
	s.log.Debug("viewport created",
		zap.Int("width", container.ContentBox().W),
		zap.Int("height", container.ContentBox().H),
	)
	return s, nil
}

// ID returns the session's unique identifier, as used in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) run() {
	defer close(s.done)
	for {
		var frames <-chan uint64
		if s.frames != nil {
			frames = s.frames.C()
		}
		var sizes <-chan hal.Size
		if s.resize != nil {
			sizes = s.resize.C()
		}

		select {
		case fn := <-s.inbox:
			fn()
			if s.disposed {
				return
			}
		case <-frames:
			s.frame()
		case sz := <-sizes:
			s.applySize(sz)
		case ev := <-s.pointer:
			s.handlePointer(ev)
		}
	}
}

// post hands fn to the session goroutine. It reports false if the session
// is gone.
func (s *Session) post(fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

// call runs fn on the session goroutine and waits for it.
func (s *Session) call(fn func()) error {
	reply := make(chan struct{})
	if !s.post(func() {
		defer close(reply)
		if s.disposed {
			return
		}
		fn()
	}) {
		return ErrDisposed
	}
	<-reply
	return nil
}

func (s *Session) frame() {
	s.controls.Update()
	s.renderer.Render(s.scene, s.camera)
}

func (s *Session) applySize(sz hal.Size) {
	s.renderer.SetSize(sz.W, sz.H)
	s.camera.Aspect = float32(sz.W) / float32(max(1, sz.H))
	s.camera.UpdateProjectionMatrix()
}

func (s *Session) handlePointer(ev hal.PointerEvent) {
	switch ev.Kind {
	case hal.PointerDown:
		s.dragging = true
	case hal.PointerUp:
		s.dragging = false
	case hal.PointerMove:
		if s.dragging {
			_, h := s.renderer.Size()
			s.controls.Drag(ev.X-s.lastX, ev.Y-s.lastY, float32(h))
		}
	case hal.PointerWheel:
		s.controls.Wheel(ev.WheelY)
	}
	s.lastX, s.lastY = ev.X, ev.Y
}

// SetBackground sets the clear color. An empty or unparsable color selects
// DefaultBackground. It does nothing after Dispose.
func (s *Session) SetBackground(color string) {
	_ = s.call(func() {
		s.scene.Background = parseBackground(color, s.log)
	})
}

// SetAutoRotate toggles idle rotation. The first speed, if any, replaces the
// current speed. It does nothing after Dispose.
func (s *Session) SetAutoRotate(enabled bool, speed ...float64) {
	_ = s.call(func() {
		s.controls.AutoRotate = enabled
		if len(speed) > 0 {
			s.controls.AutoRotateSpeed = float32(speed[0])
		}
	})
}

// Dispose stops rendering, releases the model and the renderer and detaches
// the canvas from the container. Loads still in flight are cancelled and
// their results released. It blocks until teardown is complete and is safe
// to call more than once.
func (s *Session) Dispose() {
	s.disposeOnce.Do(func() {
		s.cancel()
		s.post(s.teardown)
		<-s.done
	})
}

// teardown runs on the session goroutine.
func (s *Session) teardown() {
	var err error
	if s.frames != nil {
		err = multierr.Append(err, guard("cancel frames", s.frames.Cancel))
		s.frames = nil
	}
	if s.resize != nil {
		err = multierr.Append(err, guard("disconnect resize observer", s.resize.Disconnect))
		s.resize = nil
	}
	err = multierr.Append(err, s.evict())
	s.renderer.Dispose()
	canvas := s.renderer.Canvas()
	if s.container.Contains(canvas) {
		err = multierr.Append(err, guard("remove canvas", func() { s.container.RemoveChild(canvas) }))
	}
	s.disposed = true

	if err != nil {
		s.log.Warn("viewport teardown faults", zap.Errors("faults", multierr.Errors(err)))
	}
	s.log.Debug("viewport disposed")
}

func guard(what string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", what, r)
		}
	}()
	fn()
	return nil
}

func parseBackground(c string, log *zap.Logger) engine.Color {
	def, _ := engine.ParseColor(DefaultBackground)
	if c == "" {
		return def
	}
	col, ok := engine.ParseColor(c)
	if !ok {
		log.Debug("invalid background color", zap.String("color", c))
		return def
	}
	return col
}
