package engine

import (
	"fmt"

	"go.uber.org/multierr"
)

// Disposer is implemented by resources that hold renderer-side buffers.
type Disposer interface {
	Dispose()
}

// resource tracks the disposed state of a releasable value and the renderers
// that must forget it once released.
type resource struct {
	disposed  bool
	listeners []func()
}

func (r *resource) onDispose(fn func()) {
	if r.disposed {
		fn()
		return
	}
	r.listeners = append(r.listeners, fn)
}

// release marks r as disposed and fires its listeners.
// It reports false if r was already disposed.
func (r *resource) release() bool {
	if r.disposed {
		return false
	}
	r.disposed = true
	ls := r.listeners
	r.listeners = nil
	for _, fn := range ls {
		fn()
	}
	return true
}

// DisposeObject releases the geometry and every material of each mesh in o's
// subgraph. Materials without a Dispose method are skipped. A release that
// panics does not stop the traversal; the faults are returned together.
func DisposeObject(o *Object) error {
	if o == nil {
		return nil
	}
	var err error
	o.Traverse(func(n *Object) {
		if n.Geometry != nil {
			err = multierr.Append(err, safeDispose(n.Name, "geometry", n.Geometry))
		}
		for i, m := range n.Materials {
			d, ok := m.(Disposer)
			if !ok || d == nil {
				continue
			}
			err = multierr.Append(err, safeDispose(n.Name, fmt.Sprintf("material %d", i), d))
		}
	})
	return err
}

func safeDispose(node, what string, d Disposer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispose %s of %q: %v", what, node, r)
		}
	}()
	d.Dispose()
	return nil
}
