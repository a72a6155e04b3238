package loader

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"folio/engine"
)

// BuiltinScheme prefixes sources that are generated instead of fetched, as in
// "builtin:torus" or "builtin:torus?major=1&minor=0.3&segments=48".
const BuiltinScheme = "builtin:"

// IsBuiltin reports whether src names a generated model.
func IsBuiltin(src string) bool { return strings.HasPrefix(src, BuiltinScheme) }

// Builtins lists the generated model names.
func Builtins() []string { return []string{"cube", "torus"} }

// Builtin generates the model named by src. Generated meshes carry no
// material.
func Builtin(src string) (*engine.Object, error) {
	if !IsBuiltin(src) {
		return nil, fmt.Errorf("%s: %w", src, ErrUnsupportedFormat)
	}
	name, query, _ := strings.Cut(src[len(BuiltinScheme):], "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	p := builtinParams{v: params}

	var g *engine.Geometry
	switch name {
	case "cube":
		g = cubeGeometry(p.number("size", 1))
	case "torus":
		seg := p.count("segments", 32)
		g = torusGeometry(p.number("major", 1), p.number("minor", 0.38), seg, max(seg/2, 3))
	default:
		return nil, fmt.Errorf("%s: unknown builtin %q: %w", src, name, ErrNotFound)
	}
	if p.err != nil {
		return nil, fmt.Errorf("%s: %w", src, p.err)
	}
	root := engine.NewGroup(name)
	root.Add(engine.NewMesh(name, g))
	return root, nil
}

// builtinParams reads numeric query parameters, keeping the first error.
type builtinParams struct {
	v   url.Values
	err error
}

func (p *builtinParams) number(key string, def float32) float32 {
	s := p.v.Get(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || f <= 0 {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s %q", key, s)
		}
		return def
	}
	return float32(f)
}

func (p *builtinParams) count(key string, def int) int {
	s := p.v.Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 3 || n > 512 {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s %q", key, s)
		}
		return def
	}
	return n
}

func torusGeometry(major, minor float32, segU, segV int) *engine.Geometry {
	if segU < 3 {
		segU = 3
	}
	if segV < 3 {
		segV = 3
	}

	pos := make([]engine.Vec3, 0, segU*segV)
	indices := make([]uint32, 0, segU*segV*6)

	for u := 0; u < segU; u++ {
		theta := 2 * math32.Pi * float32(u) / float32(segU)
		st, ct := math32.Sincos(theta)
		for v := 0; v < segV; v++ {
			phi := 2 * math32.Pi * float32(v) / float32(segV)
			sp, cp := math32.Sincos(phi)

			r := major + minor*cp
			pos = append(pos, engine.V3(r*ct, minor*sp, r*st))
		}
	}

	idx := func(u, v int) uint32 {
		return uint32((u%segU)*segV + v%segV)
	}
	for u := 0; u < segU; u++ {
		for v := 0; v < segV; v++ {
			i0, i1, i2, i3 := idx(u, v), idx(u+1, v), idx(u+1, v+1), idx(u, v+1)
			indices = append(indices, i0, i1, i2, i0, i2, i3)
		}
	}
	return engine.NewGeometry(pos, indices)
}

func cubeGeometry(size float32) *engine.Geometry {
	h := size / 2
	pos := []engine.Vec3{
		{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h},
		{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 7, 6, 3, 6, 2, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	return engine.NewGeometry(pos, indices)
}
