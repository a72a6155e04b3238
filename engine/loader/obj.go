package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/udhos/gwob"
	"go.uber.org/zap"

	"folio/engine"
)

var errNoFaces = errors.New("obj: no faces")

// mtl is one entry of an MTL library.
type mtl struct {
	color     engine.Color
	metalness float32
	roughness float32
}

func defaultMTL() mtl {
	return mtl{color: engine.Hex(0xffffff), roughness: 1}
}

// DecodeOBJ decodes a Wavefront OBJ file into a group with one mesh per
// object or group statement.
//
// Faces read before the first usemtl of a section take that material;
// sections that never select one have no material. Material libraries named
// by mtllib are fetched through res; a library that cannot be read leaves its
// materials at defaults.
func DecodeOBJ(ctx context.Context, name string, data []byte, res Resolver) (*engine.Object, error) {
	src, tris, err := objStatements(ctx, data)
	if err != nil {
		return nil, err
	}
	if tris == 0 {
		return nil, errNoFaces
	}
	o, err := gwob.NewObjFromBuf(name, src, parserOptions(name))
	if err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	if len(o.Indices) != 3*tris {
		return nil, fmt.Errorf("obj: malformed faces: read %d of %d vertex references", len(o.Indices), 3*tris)
	}

	library := map[string]mtl{}
	for _, lib := range strings.Fields(o.Mtllib) {
		if err := loadMTL(lib, res, library); err != nil {
			Logger().Warn("material library unavailable", zap.String("mtllib", lib), zap.Error(err))
		}
	}

	root := engine.NewGroup(name)
	for i, sec := range objSections(o.Groups) {
		meshName := sec.name
		if meshName == "" {
			meshName = fmt.Sprintf("%s.%d", name, i)
		}
		root.Add(sec.mesh(meshName, o, library))
	}
	if len(root.Children()) == 0 {
		return nil, errNoFaces
	}
	return root, nil
}

func parserOptions(name string) *gwob.ObjParserOptions {
	return &gwob.ObjParserOptions{
		IgnoreNormals: true,
		Logger: func(msg string) {
			Logger().Debug("obj parser", zap.String("name", name), zap.String("msg", strings.TrimSpace(msg)))
		},
	}
}

// objStatements rewrites data into the statements the parser reads. Faces
// keep only their position indices, made absolute, and are fanned into
// triangles. Vertex colors are dropped and continuation lines joined. It
// returns the number of triangles written.
func objStatements(ctx context.Context, data []byte) ([]byte, int, error) {
	var out bytes.Buffer
	out.Grow(len(data))
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)

	lineNo, verts, tris := 0, 0, 0
	for sc.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		line := strings.TrimSpace(sc.Text())
		for strings.HasSuffix(line, "\\") && sc.Scan() {
			lineNo++
			line = strings.TrimSuffix(line, "\\") + " " + strings.TrimSpace(sc.Text())
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, 0, fmt.Errorf("obj: line %d: vertex needs 3 coordinates", lineNo)
			}
			if len(fields) > 5 {
				fields = fields[:4]
			}
			for _, f := range fields[1:] {
				if _, err := strconv.ParseFloat(f, 32); err != nil {
					return nil, 0, fmt.Errorf("obj: line %d: %w", lineNo, err)
				}
			}
			out.WriteString(strings.Join(fields, " "))
			out.WriteByte('\n')
			verts++
		case "f":
			if len(fields) < 4 {
				return nil, 0, fmt.Errorf("obj: line %d: face needs 3 vertices", lineNo)
			}
			vs := fields[1:]
			for i, tok := range vs {
				v, err := objIndex(tok, verts)
				if err != nil {
					return nil, 0, fmt.Errorf("obj: line %d: %w", lineNo, err)
				}
				vs[i] = strconv.Itoa(v)
			}
			for i := 1; i+1 < len(vs); i++ {
				fmt.Fprintf(&out, "f %s %s %s\n", vs[0], vs[i], vs[i+1])
				tris++
			}
		case "o", "g", "usemtl", "mtllib", "s":
			if rest := strings.TrimSpace(line[len(fields[0]):]); rest != "" {
				out.WriteString(fields[0] + " " + rest + "\n")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("obj: %w", err)
	}
	return out.Bytes(), tris, nil
}

// objIndex parses the position part of a face token ("v", "v/vt", "v//vn",
// "v/vt/vn") into a one-based index. Relative indices count back from the
// seen vertices; forward references are checked by the parser.
func objIndex(tok string, seen int) (int, error) {
	v, _, _ := strings.Cut(tok, "/")
	i, err := strconv.Atoi(v)
	if err != nil || i == 0 {
		return 0, fmt.Errorf("bad face index %q", tok)
	}
	if i < 0 {
		i += seen + 1
		if i < 1 {
			return 0, fmt.Errorf("face index %q out of range", tok)
		}
	}
	return i, nil
}

// objSection is a run of parser groups under one o/g name.
type objSection struct {
	name   string
	groups []*gwob.Group
}

func objSections(groups []*gwob.Group) []*objSection {
	var out []*objSection
	for _, g := range groups {
		if g.IndexCount <= 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].name == g.Name {
			out[n-1].groups = append(out[n-1].groups, g)
			continue
		}
		out = append(out, &objSection{name: g.Name, groups: []*gwob.Group{g}})
	}
	return out
}

// mesh builds the section's geometry with its own vertex numbering and one
// material slot per distinct usemtl name.
func (s *objSection) mesh(name string, o *gwob.Obj, library map[string]mtl) *engine.Object {
	stride := o.StrideSize / 4
	offset := o.StrideOffsetPosition / 4

	var (
		remap   = map[int]uint32{}
		pos     []engine.Vec3
		idx     []uint32
		groups  []engine.Group
		names   []string // material name per slot; "" for faces without one
		usesMtl bool
	)
	for _, g := range s.groups {
		slot := -1
		for i, n := range names {
			if n == g.Usemtl {
				slot = i
				break
			}
		}
		if slot < 0 {
			slot = len(names)
			names = append(names, g.Usemtl)
		}
		usesMtl = usesMtl || g.Usemtl != ""

		start := len(idx) / 3
		for _, gi := range o.Indices[g.IndexBegin : g.IndexBegin+g.IndexCount] {
			li, ok := remap[gi]
			if !ok {
				li = uint32(len(pos))
				remap[gi] = li
				c := o.Coord[gi*stride+offset:]
				pos = append(pos, engine.V3(c[0], c[1], c[2]))
			}
			idx = append(idx, li)
		}
		count := g.IndexCount / 3
		if n := len(groups); n > 0 && groups[n-1].Material == slot && groups[n-1].Start+groups[n-1].Count == start {
			groups[n-1].Count += count
			continue
		}
		groups = append(groups, engine.Group{Start: start, Count: count, Material: slot})
	}

	geom := engine.NewGeometry(pos, idx)
	if !usesMtl {
		return engine.NewMesh(name, geom)
	}
	geom.Groups = groups
	mats := make([]engine.Material, len(names))
	for slot, n := range names {
		if n == "" {
			continue
		}
		def, ok := library[n]
		if !ok {
			def = defaultMTL()
		}
		sm := engine.NewStandardMaterial(def.color, def.metalness, def.roughness)
		sm.Name = n
		mats[slot] = sm
	}
	return engine.NewMesh(name, geom, mats...)
}

// loadMTL reads the library lib into into. The parser covers the classic
// statements; the PBR extension (Pm, Pr) is read by mtlExtensions.
func loadMTL(lib string, res Resolver, into map[string]mtl) error {
	if res == nil {
		return ErrNotFound
	}
	data, err := res(lib)
	if err != nil {
		return err
	}
	parsed, err := gwob.ReadMaterialLibFromBuf(data, parserOptions(lib))
	if err != nil {
		return fmt.Errorf("mtl %s: %w", lib, err)
	}
	ext := mtlExtensions(data)
	for name, m := range parsed.Lib {
		e := ext[name]
		def := defaultMTL()
		if e.hasKd {
			ch := func(f float32) uint8 { return uint8(engine.Clamp01(f)*255 + 0.5) }
			def.color = engine.RGB(ch(m.Kd[0]), ch(m.Kd[1]), ch(m.Kd[2]))
		}
		def.metalness = e.metalness
		switch {
		case e.hasPr:
			def.roughness = e.roughness
		case m.Ns > 0:
			// Map the Phong exponent onto a roughness.
			def.roughness = engine.Clamp01(float32(math.Sqrt(2 / (float64(m.Ns) + 2))))
		}
		into[name] = def
	}
	return nil
}

type mtlExt struct {
	hasKd     bool
	hasPr     bool
	metalness float32
	roughness float32
}

// mtlExtensions collects, per material, the statements the parser does not
// keep: whether Kd was given, and the Pm/Pr values.
func mtlExtensions(data []byte) map[string]mtlExt {
	out := map[string]mtlExt{}
	var (
		name   string
		active bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			name, active = strings.TrimSpace(line[len("newmtl"):]), true
			continue
		}
		if !active {
			continue
		}
		e := out[name]
		num := func() float32 {
			if len(fields) < 2 {
				return 0
			}
			f, _ := strconv.ParseFloat(fields[1], 32)
			return engine.Clamp01(float32(f))
		}
		switch fields[0] {
		case "Kd":
			e.hasKd = true
		case "Pm":
			e.metalness = num()
		case "Pr":
			e.roughness, e.hasPr = num(), true
		default:
			continue
		}
		out[name] = e
	}
	return out
}
