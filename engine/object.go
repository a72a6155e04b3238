package engine

// Object is a node of the scene graph.
//
// An Object with a non-nil Geometry is a mesh; otherwise it only groups and
// transforms its children. Objects have at most one parent.
type Object struct {
	Name string

	Position Vec3
	Rotation Vec3 // Euler angles in radians, applied X then Y then Z.
	Scale    Vec3

	// Quaternion, when non-zero, overrides Rotation.
	Quaternion Vec4

	Visible bool

	Geometry  *Geometry
	Materials []Material

	CastShadow    bool
	ReceiveShadow bool

	parent   *Object
	children []*Object
}

// NewGroup creates an empty transform node.
func NewGroup(name string) *Object {
	return &Object{Name: name, Scale: V3(1, 1, 1), Visible: true}
}

// NewMesh creates a mesh node.
func NewMesh(name string, g *Geometry, mats ...Material) *Object {
	o := NewGroup(name)
	o.Geometry = g
	o.Materials = mats
	return o
}

// IsMesh reports whether o draws geometry.
func (o *Object) IsMesh() bool { return o.Geometry != nil }

// Material returns the first material slot, or nil.
func (o *Object) Material() Material {
	if len(o.Materials) == 0 {
		return nil
	}
	return o.Materials[0]
}

// HasMaterial reports whether at least one material slot is set.
func (o *Object) HasMaterial() bool {
	for _, m := range o.Materials {
		if m != nil {
			return true
		}
	}
	return false
}

func (o *Object) Parent() *Object { return o.parent }

// Children returns the immediate descendants. The slice must not be mutated.
func (o *Object) Children() []*Object { return o.children }

// Add makes child a descendant of o, detaching it from any previous parent.
func (o *Object) Add(child *Object) {
	if child == nil || child == o {
		return
	}
	child.RemoveFromParent()
	child.parent = o
	o.children = append(o.children, child)
}

// Remove detaches child from o. It reports whether child was found.
func (o *Object) Remove(child *Object) bool {
	for i, c := range o.children {
		if c != child {
			continue
		}
		copy(o.children[i:], o.children[i+1:])
		o.children[len(o.children)-1] = nil
		o.children = o.children[:len(o.children)-1]
		child.parent = nil
		return true
	}
	return false
}

// RemoveFromParent detaches o from its parent, if any.
func (o *Object) RemoveFromParent() {
	if o.parent != nil {
		o.parent.Remove(o)
	}
}

// Traverse calls fn for o and every descendant, depth first.
func (o *Object) Traverse(fn func(*Object)) {
	fn(o)
	for _, c := range o.children {
		c.Traverse(fn)
	}
}

// TraverseVisible is like Traverse but skips invisible subtrees.
func (o *Object) TraverseVisible(fn func(*Object)) {
	if !o.Visible {
		return
	}
	fn(o)
	for _, c := range o.children {
		c.TraverseVisible(fn)
	}
}

// LocalMatrix returns T ⋅ R ⋅ S.
func (o *Object) LocalMatrix() Mat4 {
	var r Mat4
	if o.Quaternion != (Vec4{}) {
		q := o.Quaternion
		r = Mat4Quat(q.X, q.Y, q.Z, q.W)
	} else {
		r = Mat4Mul(Mat4RotateZ(o.Rotation.Z), Mat4Mul(Mat4RotateY(o.Rotation.Y), Mat4RotateX(o.Rotation.X)))
	}
	s := o.Scale
	if s == (Vec3{}) {
		s = V3(1, 1, 1)
	}
	return Mat4Mul(Mat4Translate(o.Position), Mat4Mul(r, Mat4Scale(s)))
}

// WorldMatrix returns the transform from o's local space to the root's space.
func (o *Object) WorldMatrix() Mat4 {
	m := o.LocalMatrix()
	for p := o.parent; p != nil; p = p.parent {
		m = Mat4Mul(p.LocalMatrix(), m)
	}
	return m
}
