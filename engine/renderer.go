package engine

import (
	"image"
	"sync/atomic"

	"github.com/chewxy/math32"
)

// RenderMode selects the rasterization mode.
type RenderMode uint8

const (
	RenderSolidFlat RenderMode = iota
	RenderWireframe
)

// Info reports renderer-side resource usage.
type Info struct {
	Geometries int
	Materials  int
	Frames     uint64
	Triangles  int // drawn in the last frame
}

// Renderer is a fixed-pipeline software renderer.
//
// Create it once and reuse it to avoid allocations. A Renderer is owned by one
// goroutine; only Info and the Canvas may be read from elsewhere.
type Renderer struct {
	Mode  RenderMode
	Depth bool

	canvas     Canvas
	back       *image.RGBA
	depthBuf   []float32
	width      int
	height     int
	pixelRatio float32

	geometries map[*Geometry]struct{}
	materials  map[*StandardMaterial]struct{}

	nGeometries atomic.Int64
	nMaterials  atomic.Int64
	frames      atomic.Uint64
	triangles   atomic.Int64

	disposed bool
}

// NewRenderer creates a renderer with depth testing enabled and an empty surface.
func NewRenderer() *Renderer {
	return &Renderer{
		Mode:       RenderSolidFlat,
		Depth:      true,
		pixelRatio: 1,
		geometries: make(map[*Geometry]struct{}),
		materials:  make(map[*StandardMaterial]struct{}),
	}
}

// Canvas returns the surface frames are presented to.
func (r *Renderer) Canvas() *Canvas { return &r.canvas }

// SetPixelRatio sets the number of buffer pixels per logical pixel.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.pixelRatio = ratio
	r.SetSize(r.width, r.height)
}

func (r *Renderer) PixelRatio() float32 { return r.pixelRatio }

// SetSize resizes the drawing buffer to w×h logical pixels.
func (r *Renderer) SetSize(w, h int) {
	if r.disposed {
		return
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	r.width, r.height = w, h
	bw := int(math32.Floor(float32(w) * r.pixelRatio))
	bh := int(math32.Floor(float32(h) * r.pixelRatio))
	if bw <= 0 || bh <= 0 {
		r.back = nil
		r.depthBuf = nil
		return
	}
	if r.back == nil || r.back.Bounds().Dx() != bw || r.back.Bounds().Dy() != bh {
		r.back = image.NewRGBA(image.Rect(0, 0, bw, bh))
	}
	if cap(r.depthBuf) < bw*bh {
		r.depthBuf = make([]float32, bw*bh)
	} else {
		r.depthBuf = r.depthBuf[:bw*bh]
	}
}

// Size returns the logical size set by SetSize.
func (r *Renderer) Size() (w, h int) { return r.width, r.height }

// BufferSize returns the drawing buffer size in pixels.
func (r *Renderer) BufferSize() (w, h int) {
	if r.back == nil {
		return 0, 0
	}
	b := r.back.Bounds()
	return b.Dx(), b.Dy()
}

// Info returns resource usage. It is safe to call from any goroutine.
func (r *Renderer) Info() Info {
	return Info{
		Geometries: int(r.nGeometries.Load()),
		Materials:  int(r.nMaterials.Load()),
		Frames:     r.frames.Load(),
		Triangles:  int(r.triangles.Load()),
	}
}

// Disposed reports whether Dispose was called.
func (r *Renderer) Disposed() bool { return r.disposed }

// Dispose drops the drawing buffers and forgets every uploaded resource.
// The renderer draws nothing afterwards. It is safe to call more than once.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.back = nil
	r.depthBuf = nil
	r.canvas.release()
	clear(r.geometries)
	clear(r.materials)
	r.nGeometries.Store(0)
	r.nMaterials.Store(0)
}

// upload registers g and the lit materials of a mesh so that Info tracks them
// until they are disposed.
func (r *Renderer) upload(o *Object) {
	g := o.Geometry
	if _, ok := r.geometries[g]; !ok && !g.disposed {
		r.geometries[g] = struct{}{}
		r.nGeometries.Add(1)
		g.onDispose(func() {
			if _, ok := r.geometries[g]; ok {
				delete(r.geometries, g)
				r.nGeometries.Add(-1)
			}
		})
	}
	for _, m := range o.Materials {
		sm, ok := m.(*StandardMaterial)
		if !ok || sm == nil || sm.disposed {
			continue
		}
		if _, ok := r.materials[sm]; ok {
			continue
		}
		r.materials[sm] = struct{}{}
		r.nMaterials.Add(1)
		sm.onDispose(func() {
			if _, ok := r.materials[sm]; ok {
				delete(r.materials, sm)
				r.nMaterials.Add(-1)
			}
		})
	}
}

// Render draws s as seen from cam and presents the frame to the canvas.
func (r *Renderer) Render(s *Scene, cam *PerspectiveCamera) {
	if r == nil || r.disposed || s == nil || cam == nil || r.back == nil {
		return
	}
	t := RGBATarget{Img: r.back}
	w, h := t.Size()
	t.Clear(RGBA(s.Background.R, s.Background.G, s.Background.B, 0xFF))
	if r.Depth {
		for i := range r.depthBuf {
			r.depthBuf[i] = 1e9
		}
	}

	viewProj := Mat4Mul(cam.ProjectionMatrix(), cam.ViewMatrix())
	var tris int
	s.root.TraverseVisible(func(o *Object) {
		if !o.IsMesh() || o.Geometry.disposed {
			return
		}
		r.upload(o)
		tris += r.renderMesh(t, w, h, viewProj, cam.Position, o, s)
	})

	r.canvas.present(r.back)
	r.triangles.Store(int64(tris))
	r.frames.Add(1)
}

func (r *Renderer) renderMesh(t Target, w, h int, viewProj Mat4, eye Vec3, o *Object, s *Scene) int {
	g := o.Geometry
	world := o.WorldMatrix()
	mvp := Mat4Mul(viewProj, world)

	drawn := 0
	for i := 0; i < g.TriangleCount(); i++ {
		i0, i1, i2, ok := g.Triangle(i)
		if !ok {
			continue
		}
		a, b, c := g.Positions[i0], g.Positions[i1], g.Positions[i2]

		p0 := Mat4MulV4(mvp, Vec4{X: a.X, Y: a.Y, Z: a.Z, W: 1})
		p1 := Mat4MulV4(mvp, Vec4{X: b.X, Y: b.Y, Z: b.Z, W: 1})
		p2 := Mat4MulV4(mvp, Vec4{X: c.X, Y: c.Y, Z: c.Z, W: 1})

		// Trivial clip: drop triangles touching the camera plane or behind it.
		ndc0, ok0 := clipToNDC(p0)
		ndc1, ok1 := clipToNDC(p1)
		ndc2, ok2 := clipToNDC(p2)
		if !ok0 || !ok1 || !ok2 {
			continue
		}

		x0, y0 := ndcToScreen(ndc0, w, h)
		x1, y1 := ndcToScreen(ndc1, w, h)
		x2, y2 := ndcToScreen(ndc2, w, h)

		col := r.shade(o, g.MaterialIndex(i), world, eye, a, b, c, s)

		switch r.Mode {
		case RenderWireframe:
			r.drawLine(t, x0, y0, x1, y1, col)
			r.drawLine(t, x1, y1, x2, y2, col)
			r.drawLine(t, x2, y2, x0, y0, col)
		default:
			r.fillTriangleFlat(t, w, h, x0, y0, ndc0.Z, x1, y1, ndc1.Z, x2, y2, ndc2.Z, col)
		}
		drawn++
	}
	return drawn
}

// shade returns the flat color of one triangle.
func (r *Renderer) shade(o *Object, slot int, world Mat4, eye, a, b, c Vec3, s *Scene) Color {
	var m Material
	if slot >= 0 && slot < len(o.Materials) {
		m = o.Materials[slot]
	}
	if m == nil {
		m = o.Material()
	}
	if m == nil {
		return RGB(0xFF, 0xFF, 0xFF)
	}
	sm, lit := m.(*StandardMaterial)
	if !lit {
		return m.BaseColor()
	}
	wa, wb, wc := world.TransformPoint(a), world.TransformPoint(b), world.TransformPoint(c)
	n := triangleNormal(wa, wb, wc)
	if Dot(n, eye.Sub(wa)) < 0 {
		n = n.Mul(-1)
	}
	light := s.irradiance(n)
	if len(s.lights) == 0 {
		light = V3(1, 1, 1)
	}
	return sm.Color.Shade(light.Mul(sm.diffuse()))
}

type ndcPoint struct {
	X, Y, Z float32
}

func clipToNDC(p Vec4) (ndcPoint, bool) {
	if p.W <= 0 {
		return ndcPoint{}, false
	}
	inv := 1 / p.W
	return ndcPoint{X: p.X * inv, Y: p.Y * inv, Z: p.Z * inv}, true
}

func ndcToScreen(p ndcPoint, w, h int) (x, y int) {
	sx := (p.X*0.5 + 0.5) * float32(w-1)
	sy := (1 - (p.Y*0.5 + 0.5)) * float32(h-1)
	return int(sx + 0.5), int(sy + 0.5)
}

// triangleNormal returns the unit normal of a counter-clockwise triangle.
func triangleNormal(a, b, c Vec3) Vec3 {
	return Normalize(Cross(b.Sub(a), c.Sub(a)))
}

func (r *Renderer) depthTest(w int, x, y int, z float32) bool {
	if !r.Depth || r.depthBuf == nil {
		return true
	}
	if x < 0 || y < 0 || x >= w {
		return false
	}
	idx := y*w + x
	if idx < 0 || idx >= len(r.depthBuf) {
		return false
	}
	// NDC z is in [-1,1]. Map to [0,1].
	d := Clamp01(z*0.5 + 0.5)
	if d >= r.depthBuf[idx] {
		return false
	}
	r.depthBuf[idx] = d
	return true
}

func (r *Renderer) drawLine(t Target, x0, y0, x1, y1 int, c Color) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Renderer) fillTriangleFlat(t Target, w, h int, x0, y0 int, z0 float32, x1, y1 int, z1 float32, x2, y2 int, z2 float32, c Color) {
	minX, maxX := max(min(x0, x1, x2), 0), min(max(x0, x1, x2), w-1)
	minY, maxY := max(min(y0, y1, y2), 0), min(max(y0, y1, y2), h-1)
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}
	// Double sided: flip clockwise triangles so the edge tests below agree.
	if area < 0 {
		x1, y1, z1, x2, y2, z2 = x2, y2, z2, x1, y1, z1
		area = -area
	}
	invArea := 1.0 / float32(area)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(x1, y1, x2, y2, x, y)
			w1 := edgeFn(x2, y2, x0, y0, x, y)
			w2 := edgeFn(x0, y0, x1, y1, x, y)
			if (w0 | w1 | w2) < 0 {
				continue
			}
			z := (float32(w0)*z0 + float32(w1)*z1 + float32(w2)*z2) * invArea
			if !r.depthTest(w, x, y, z) {
				continue
			}
			t.SetPixel(x, y, c)
		}
	}
}

func edgeFn(x0, y0, x1, y1, x, y int) int {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
