package loader

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"

	"folio/engine"
	"folio/gltf"
)

// BuildGLTF converts a decoded glTF document into an object graph rooted at
// a group named name. bin is the GLB BIN chunk, if any; other buffers are
// decoded from data URIs or fetched through res.
func BuildGLTF(ctx context.Context, name string, doc *gltf.GLTF, bin []byte, res Resolver) (*engine.Object, error) {
	if err := doc.Check(); err != nil {
		return nil, err
	}
	buffers, err := resolveBuffers(ctx, doc, bin, res)
	if err != nil {
		return nil, err
	}

	b := &gltfBuilder{doc: doc, buffers: buffers, visited: make([]bool, len(doc.Nodes))}
	root := engine.NewGroup(name)
	for _, n := range sceneRoots(doc) {
		o, err := b.node(ctx, int(n))
		if err != nil {
			return nil, err
		}
		if o != nil {
			root.Add(o)
		}
	}
	if b.meshes == 0 {
		return nil, fmt.Errorf("gltf: %s has no triangle meshes", name)
	}
	return root, nil
}

func resolveBuffers(ctx context.Context, doc *gltf.GLTF, bin []byte, res Resolver) ([][]byte, error) {
	out := make([][]byte, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var data []byte
		switch {
		case buf.URI == "":
			if bin == nil {
				return nil, fmt.Errorf("gltf: buffer %d refers to a missing BIN chunk", i)
			}
			data = bin
		default:
			d, ok, err := gltf.DecodeDataURI(buf.URI)
			if err != nil {
				return nil, err
			}
			if !ok {
				if res == nil {
					return nil, fmt.Errorf("gltf: buffer %d: %w", i, ErrNotFound)
				}
				d, err = res(buf.URI)
				if err != nil {
					return nil, fmt.Errorf("gltf: buffer %d: %w", i, err)
				}
			}
			data = d
		}
		if int64(len(data)) < buf.ByteLength {
			return nil, fmt.Errorf("gltf: buffer %d is %d bytes, want %d", i, len(data), buf.ByteLength)
		}
		out[i] = data
	}
	return out, nil
}

// sceneRoots returns the root nodes of the default scene, or every node that
// is nobody's child when the document has no scenes.
func sceneRoots(doc *gltf.GLTF) []int64 {
	if s := doc.DefaultScene(); s >= 0 {
		return doc.Scenes[s].Nodes
	}
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int64
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, int64(i))
		}
	}
	return roots
}

type gltfBuilder struct {
	doc     *gltf.GLTF
	buffers [][]byte
	visited []bool
	meshes  int
}

func (b *gltfBuilder) node(ctx context.Context, i int) (*engine.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.visited[i] {
		// A node may appear only once in a scene graph.
		return nil, fmt.Errorf("gltf: node %d is referenced more than once", i)
	}
	b.visited[i] = true

	n := &b.doc.Nodes[i]
	o := engine.NewGroup(n.Name)
	applyTransform(o, n)

	if n.Mesh != nil {
		m := &b.doc.Meshes[*n.Mesh]
		for j := range m.Primitives {
			mesh, err := b.primitive(m, j)
			if err != nil {
				return nil, fmt.Errorf("gltf: mesh %d primitive %d: %w", *n.Mesh, j, err)
			}
			if mesh != nil {
				o.Add(mesh)
			}
		}
	}
	for _, c := range n.Children {
		child, err := b.node(ctx, int(c))
		if err != nil {
			return nil, err
		}
		o.Add(child)
	}
	return o, nil
}

func (b *gltfBuilder) primitive(m *gltf.Mesh, j int) (*engine.Object, error) {
	p := &m.Primitives[j]
	mode := p.DrawMode()
	if mode != gltf.TRIANGLES && mode != gltf.TRIANGLE_STRIP && mode != gltf.TRIANGLE_FAN {
		return nil, nil
	}
	pa, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	flat, n, err := b.doc.ReadFloats(int(pa), b.buffers)
	if err != nil {
		return nil, err
	}
	if n != 3 {
		return nil, fmt.Errorf("POSITION is not VEC3")
	}
	pos := make([]engine.Vec3, len(flat)/3)
	for k := range pos {
		pos[k] = engine.V3(flat[k*3], flat[k*3+1], flat[k*3+2])
	}

	var idx []uint32
	if p.Indices != nil {
		idx, err = b.doc.ReadIndices(int(*p.Indices), b.buffers)
		if err != nil {
			return nil, err
		}
	} else {
		idx = make([]uint32, len(pos))
		for k := range idx {
			idx[k] = uint32(k)
		}
	}
	for _, v := range idx {
		if int(v) >= len(pos) {
			return nil, fmt.Errorf("index %d out of range", v)
		}
	}
	idx = triangulate(mode, idx)

	name := m.Name
	if len(m.Primitives) > 1 {
		name = fmt.Sprintf("%s.%d", m.Name, j)
	}
	var mats []engine.Material
	if p.Material != nil {
		mats = append(mats, b.material(int(*p.Material)))
	}
	b.meshes++
	return engine.NewMesh(name, engine.NewGeometry(pos, idx), mats...), nil
}

// material creates a fresh material so that each mesh owns what it disposes.
func (b *gltfBuilder) material(i int) *engine.StandardMaterial {
	src := &b.doc.Materials[i]
	pbr := src.PBRMetallicRoughness
	c := pbr.BaseColor()
	ch := func(f float32) uint8 {
		// Linear factor to 8-bit sRGB.
		f = engine.Clamp01(f)
		if f <= 0.0031308 {
			f *= 12.92
		} else {
			f = 1.055*math32.Pow(f, 1/2.4) - 0.055
		}
		return uint8(engine.Clamp01(f)*255 + 0.5)
	}
	sm := engine.NewStandardMaterial(engine.RGBA(ch(c[0]), ch(c[1]), ch(c[2]), uint8(engine.Clamp01(c[3])*255+0.5)), pbr.Metallic(), pbr.Roughness())
	sm.Name = src.Name
	return sm
}

func triangulate(mode int64, idx []uint32) []uint32 {
	switch mode {
	case gltf.TRIANGLE_STRIP:
		var out []uint32
		for k := 0; k+2 < len(idx); k++ {
			if k%2 == 0 {
				out = append(out, idx[k], idx[k+1], idx[k+2])
			} else {
				out = append(out, idx[k+1], idx[k], idx[k+2])
			}
		}
		return out
	case gltf.TRIANGLE_FAN:
		var out []uint32
		for k := 1; k+1 < len(idx); k++ {
			out = append(out, idx[0], idx[k], idx[k+1])
		}
		return out
	}
	return idx[:len(idx)/3*3]
}

func applyTransform(o *engine.Object, n *gltf.Node) {
	if n.Matrix != nil {
		decompose(o, engine.Mat4(*n.Matrix))
		return
	}
	if t := n.Translation; t != nil {
		o.Position = engine.V3(t[0], t[1], t[2])
	}
	if r := n.Rotation; r != nil {
		o.Quaternion = engine.Vec4{X: r[0], Y: r[1], Z: r[2], W: r[3]}
	}
	if s := n.Scale; s != nil {
		o.Scale = engine.V3(s[0], s[1], s[2])
	}
}

// decompose splits a column-major affine matrix into translation, rotation
// and scale. Shear is lost.
func decompose(o *engine.Object, m engine.Mat4) {
	o.Position = engine.V3(m[12], m[13], m[14])
	sx := engine.Len(engine.V3(m[0], m[1], m[2]))
	sy := engine.Len(engine.V3(m[4], m[5], m[6]))
	sz := engine.Len(engine.V3(m[8], m[9], m[10]))
	if engine.Dot(engine.Cross(engine.V3(m[0], m[1], m[2]), engine.V3(m[4], m[5], m[6])), engine.V3(m[8], m[9], m[10])) < 0 {
		sx = -sx
	}
	o.Scale = engine.V3(sx, sy, sz)
	if sx == 0 || sy == 0 || sz == 0 {
		return
	}

	// Rotation matrix elements, row r column c.
	r00, r10, r20 := m[0]/sx, m[1]/sx, m[2]/sx
	r01, r11, r21 := m[4]/sy, m[5]/sy, m[6]/sy
	r02, r12, r22 := m[8]/sz, m[9]/sz, m[10]/sz

	var q engine.Vec4
	switch tr := r00 + r11 + r22; {
	case tr > 0:
		s := 0.5 / math32.Sqrt(tr+1)
		q = engine.Vec4{X: (r21 - r12) * s, Y: (r02 - r20) * s, Z: (r10 - r01) * s, W: 0.25 / s}
	case r00 > r11 && r00 > r22:
		s := 2 * math32.Sqrt(1+r00-r11-r22)
		q = engine.Vec4{X: 0.25 * s, Y: (r01 + r10) / s, Z: (r02 + r20) / s, W: (r21 - r12) / s}
	case r11 > r22:
		s := 2 * math32.Sqrt(1+r11-r00-r22)
		q = engine.Vec4{X: (r01 + r10) / s, Y: 0.25 * s, Z: (r12 + r21) / s, W: (r02 - r20) / s}
	default:
		s := 2 * math32.Sqrt(1+r22-r00-r11)
		q = engine.Vec4{X: (r02 + r20) / s, Y: (r12 + r21) / s, Z: 0.25 * s, W: (r10 - r01) / s}
	}
	o.Quaternion = q
}
