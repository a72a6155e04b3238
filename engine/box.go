package engine

import "github.com/chewxy/math32"

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox returns a box that contains nothing; expanding it by a point yields
// a box around that point.
func EmptyBox() Box3 {
	inf := math32.Inf(1)
	return Box3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether b contains no point.
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

func (b Box3) ExpandByPoint(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

func (b Box3) Union(o Box3) Box3 {
	return Box3{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Size returns the extent of b along each axis. An empty box has zero size.
func (b Box3) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of b. An empty box is centered at the origin.
func (b Box3) Center() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// BoxFromObject returns the world-space bounds of every mesh vertex in o's
// subgraph, including o's own transform.
func BoxFromObject(o *Object) Box3 {
	b := EmptyBox()
	if o == nil {
		return b
	}
	o.Traverse(func(n *Object) {
		if n.Geometry == nil || len(n.Geometry.Positions) == 0 {
			return
		}
		m := n.WorldMatrix()
		for _, p := range n.Geometry.Positions {
			b = b.ExpandByPoint(m.TransformPoint(p))
		}
	})
	return b
}
