package hal

import (
	"image"
	"image/color"
	"slices"
	"sync"

	"golang.org/x/image/draw"
)

// Box is an in-memory Container. Hosts size it and composite its children;
// it also buffers the pointer and key events addressed to it.
//
// All methods are safe for concurrent use.
type Box struct {
	mu       sync.Mutex
	size     Size
	children []Element

	cmu     sync.Mutex // serializes Composite
	scratch *image.RGBA

	pointer chan PointerEvent
	keys    chan KeyEvent
}

// NewBox creates a box with content size w×h.
func NewBox(w, h int) *Box {
	return &Box{
		size:    Size{W: max(w, 0), H: max(h, 0)},
		pointer: make(chan PointerEvent, 64),
		keys:    make(chan KeyEvent, 64),
	}
}

// SetSize changes the content box. Resize observers see it on the next frame.
func (b *Box) SetSize(w, h int) {
	b.mu.Lock()
	b.size = Size{W: max(w, 0), H: max(h, 0)}
	b.mu.Unlock()
}

func (b *Box) ContentBox() Size {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *Box) AppendChild(e Element) {
	if e == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.Index(b.children, e); i >= 0 {
		b.children = slices.Delete(b.children, i, i+1)
	}
	b.children = append(b.children, e)
}

func (b *Box) RemoveChild(e Element) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.Index(b.children, e)
	if i < 0 {
		return false
	}
	b.children = slices.Delete(b.children, i, i+1)
	return true
}

func (b *Box) Contains(e Element) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.children, e)
}

// Children returns a copy of the attached elements in paint order.
func (b *Box) Children() []Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.children)
}

func (b *Box) Pointer() <-chan PointerEvent { return b.pointer }

// Keys returns the key events sent to the box.
func (b *Box) Keys() <-chan KeyEvent { return b.keys }

// SendPointer queues ev. It drops ev if nobody keeps up with the queue.
func (b *Box) SendPointer(ev PointerEvent) bool {
	select {
	case b.pointer <- ev:
		return true
	default:
		return false
	}
}

// SendKey queues ev. It drops ev if nobody keeps up with the queue.
func (b *Box) SendKey(ev KeyEvent) bool {
	select {
	case b.keys <- ev:
		return true
	default:
		return false
	}
}

// Composite paints every child over bg into dst, sized to the content box,
// and returns dst (reallocated if its size differs). Children whose pixels do
// not match the content box, such as high pixel ratio canvases, are scaled.
func (b *Box) Composite(dst *image.RGBA, bg color.Color) *image.RGBA {
	b.cmu.Lock()
	defer b.cmu.Unlock()

	b.mu.Lock()
	size := b.size
	children := slices.Clone(b.children)
	b.mu.Unlock()

	r := image.Rect(0, 0, size.W, size.H)
	if dst == nil || dst.Bounds() != r {
		dst = image.NewRGBA(r)
	}
	draw.Draw(dst, r, image.NewUniform(bg), image.Point{}, draw.Src)

	for _, c := range children {
		snap := c.Snapshot(b.scratch)
		if snap == nil {
			continue
		}
		b.scratch = snap
		if snap.Bounds().Size() == r.Size() {
			draw.Draw(dst, r, snap, snap.Bounds().Min, draw.Over)
			continue
		}
		draw.ApproxBiLinear.Scale(dst, r, snap, snap.Bounds(), draw.Over, nil)
	}
	return dst
}
