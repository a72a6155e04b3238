package engine

// Group assigns a range of triangles to one entry of a mesh's material slice.
type Group struct {
	Start    int // first triangle
	Count    int // number of triangles
	Material int
}

// Geometry is an indexed (or, with nil Indices, sequential) triangle list.
//
// The zero value is an empty geometry. After Dispose the buffers are dropped
// and the geometry draws nothing.
type Geometry struct {
	Positions []Vec3
	Indices   []uint32
	Groups    []Group

	resource
}

// NewGeometry creates a geometry over the given buffers.
func NewGeometry(positions []Vec3, indices []uint32) *Geometry {
	return &Geometry{Positions: positions, Indices: indices}
}

// TriangleCount returns the number of complete triangles.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
// ok is false if any index is out of range.
func (g *Geometry) Triangle(i int) (a, b, c int, ok bool) {
	if g.Indices != nil {
		a, b, c = int(g.Indices[i*3]), int(g.Indices[i*3+1]), int(g.Indices[i*3+2])
	} else {
		a, b, c = i*3, i*3+1, i*3+2
	}
	n := len(g.Positions)
	ok = a < n && b < n && c < n
	return
}

// MaterialIndex returns the material slot used by triangle i.
func (g *Geometry) MaterialIndex(i int) int {
	for _, gr := range g.Groups {
		if i >= gr.Start && i < gr.Start+gr.Count {
			return gr.Material
		}
	}
	return 0
}

// BoundingBox returns the local-space bounds of the vertex positions.
func (g *Geometry) BoundingBox() Box3 {
	b := EmptyBox()
	if g == nil {
		return b
	}
	for _, p := range g.Positions {
		b = b.ExpandByPoint(p)
	}
	return b
}

// Dispose drops the buffers. It is safe to call more than once.
func (g *Geometry) Dispose() {
	if g == nil || !g.release() {
		return
	}
	g.Positions = nil
	g.Indices = nil
	g.Groups = nil
}

// Disposed reports whether Dispose was called.
func (g *Geometry) Disposed() bool { return g != nil && g.disposed }
