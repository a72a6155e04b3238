package viewport

import (
	"context"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"folio/engine"
)

// SetSrc replaces the displayed model with the one at src.
//
// The current model is removed and released before the fetch starts; the
// view keeps rendering while the new model loads. On success the new model
// is centered and the camera framed on it. On failure the error is returned
// and the view stays empty.
//
// An empty src does nothing. When SetSrc is called again before an earlier
// call completes, only the latest call's model is displayed: earlier results
// are released on arrival and their calls return ErrSuperseded. ctx bounds
// only the wait; the load itself runs until it completes, the session is
// disposed or it is superseded and finishes.
func (s *Session) SetSrc(ctx context.Context, src string) error {
	if src == "" {
		return nil
	}
	var result <-chan error
	if err := s.call(func() {
		if err := s.evict(); err != nil {
			s.log.Warn("release of previous model failed", zap.Error(err))
		}
		result = s.startLoad(s.nextLoad(), src)
	}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// nextLoad issues a new load sequence number.
func (s *Session) nextLoad() uint64 {
	s.seq++
	return s.seq
}

// startLoad fetches src on a worker goroutine. The worker never touches the
// scene: it hands the result back to the session goroutine, or releases it
// if the session is gone.
func (s *Session) startLoad(seq uint64, src string) <-chan error {
	result := make(chan error, 1)
	go func() {
		start := time.Now()
		obj, err := s.fetch(src)
		delivered := s.post(func() {
			result <- s.finishLoad(seq, src, obj, err, time.Since(start))
		})
		if !delivered {
			release(obj, s.log)
			result <- ErrDisposed
		}
	}()
	return result
}

// fetch runs the loader, turning a panic into an error.
func (s *Session) fetch(src string) (obj *engine.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			obj, err = nil, fmt.Errorf("load %s: loader panic: %v", src, r)
		}
	}()
	obj, err = s.loader.Load(s.ctx, src)
	if err == nil && obj == nil {
		err = fmt.Errorf("load %s: loader returned no model", src)
	}
	return obj, err
}

// finishLoad runs on the session goroutine.
func (s *Session) finishLoad(seq uint64, src string, obj *engine.Object, err error, took time.Duration) error {
	log := s.log.With(zap.String("src", src), zap.Uint64("load", seq))
	if s.disposed || s.ctx.Err() != nil {
		release(obj, log)
		return ErrDisposed
	}
	if seq != s.seq {
		release(obj, log)
		log.Debug("model load superseded", zap.Uint64("latest", s.seq), zap.NamedError("cause", err))
		return ErrSuperseded
	}
	if err != nil {
		release(obj, log)
		log.Error("model load failed", zap.Error(err))
		return err
	}

	meshes := normalize(obj)
	s.model = obj
	s.scene.Add(obj)
	s.frameModel(obj)
	log.Info("model loaded", zap.Int("meshes", meshes), zap.Duration("took", took))
	return nil
}

// evict detaches and releases the current model, if any.
func (s *Session) evict() error {
	if s.model == nil {
		return nil
	}
	m := s.model
	s.scene.Remove(m)
	s.model = nil
	return engine.DisposeObject(m)
}

// normalize enables shadows on every mesh and gives meshes without a
// material a neutral one. It returns the number of meshes.
func normalize(obj *engine.Object) int {
	n := 0
	obj.Traverse(func(o *engine.Object) {
		if !o.IsMesh() {
			return
		}
		n++
		o.CastShadow = true
		o.ReceiveShadow = true
		if !o.HasMaterial() {
			o.Materials = []engine.Material{fallbackMaterial()}
			return
		}
		var fb *engine.StandardMaterial
		for i, m := range o.Materials {
			if m != nil {
				continue
			}
			if fb == nil {
				fb = fallbackMaterial()
			}
			o.Materials[i] = fb
		}
	})
	return n
}

func fallbackMaterial() *engine.StandardMaterial {
	return engine.NewStandardMaterial(fallbackColor, 0.05, 0.8)
}

// frameModel centers obj at the origin and moves the camera so that it fits
// the view, or to the configured distance.
func (s *Session) frameModel(obj *engine.Object) {
	box := engine.BoxFromObject(obj)
	size := box.Size()
	obj.Position = obj.Position.Sub(box.Center())

	maxDim := size.MaxComponent()
	fit := (maxDim / 2) / math32.Tan(s.camera.FOVRadians()/2)
	distance := fit * fitMargin
	if s.opts.CameraDistance > 0 {
		distance = float32(s.opts.CameraDistance)
	}

	s.camera.Position = engine.V3(0, 0, distance)
	s.controls.Target = engine.Vec3{}
	s.controls.Update()
}

func release(obj *engine.Object, log *zap.Logger) {
	if obj == nil {
		return
	}
	if err := engine.DisposeObject(obj); err != nil {
		log.Warn("release of discarded model failed", zap.Error(err))
	}
}
