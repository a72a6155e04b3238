package engine

import (
	"image"
	"sync"
)

// Target is a minimal pixel target for software rendering.
//
// Implementations should clip out-of-bounds coordinates.
type Target interface {
	Size() (w, h int)
	SetPixel(x, y int, c Color)
	Clear(c Color)
}

// RGBATarget renders into an *image.RGBA.
type RGBATarget struct {
	Img *image.RGBA
}

func (t RGBATarget) Size() (w, h int) {
	if t.Img == nil {
		return 0, 0
	}
	b := t.Img.Bounds()
	return b.Dx(), b.Dy()
}

func (t RGBATarget) Clear(c Color) {
	if t.Img == nil {
		return
	}
	pix := t.Img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

func (t RGBATarget) SetPixel(x, y int, c Color) {
	if t.Img == nil {
		return
	}
	b := t.Img.Bounds()
	if x < 0 || y < 0 || x >= b.Dx() || y >= b.Dy() {
		return
	}
	off := y*t.Img.Stride + x*4
	t.Img.Pix[off+0] = c.R
	t.Img.Pix[off+1] = c.G
	t.Img.Pix[off+2] = c.B
	t.Img.Pix[off+3] = c.A
}

// Canvas holds the last frame a Renderer presented.
//
// It is the renderer's attachable surface: hosts append it to a container and
// copy its pixels out with Snapshot from any goroutine.
type Canvas struct {
	mu    sync.Mutex
	front *image.RGBA
}

// present publishes src as the current frame.
func (c *Canvas) present(src *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.front == nil || c.front.Bounds() != src.Bounds() {
		c.front = image.NewRGBA(src.Bounds())
	}
	copy(c.front.Pix, src.Pix)
}

// release drops the frame buffer.
func (c *Canvas) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.front = nil
}

// Size returns the pixel size of the current frame.
func (c *Canvas) Size() (w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.front == nil {
		return 0, 0
	}
	b := c.front.Bounds()
	return b.Dx(), b.Dy()
}

// Snapshot copies the current frame into dst, reallocating dst when its size
// differs, and returns it. It returns nil if no frame was presented.
func (c *Canvas) Snapshot(dst *image.RGBA) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.front == nil {
		return nil
	}
	if dst == nil || dst.Bounds() != c.front.Bounds() {
		dst = image.NewRGBA(c.front.Bounds())
	}
	copy(dst.Pix, c.front.Pix)
	return dst
}
