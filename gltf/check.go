package gltf

import (
	"errors"
	"fmt"
)

func newErr(reason string) error {
	return errors.New("gltf: " + reason)
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("gltf: %s: %w", op, err)
}

func validIndex(i *int64, n int) bool {
	return i == nil || (*i >= 0 && *i < int64(n))
}

// Check checks that f is a glTF 2.0 document whose cross references are in
// range. It does not read buffer contents.
func (f *GLTF) Check() error {
	if f.Asset.Version == "" {
		return newErr("missing Asset.Version")
	}
	if f.Asset.Version[0] != '2' {
		return newErr("unsupported Asset.Version " + f.Asset.Version)
	}
	if !validIndex(f.Scene, len(f.Scenes)) {
		return newErr("invalid GLTF.Scene index")
	}
	for i := range f.BufferViews {
		v := &f.BufferViews[i]
		if v.Buffer < 0 || v.Buffer >= int64(len(f.Buffers)) {
			return newErr(fmt.Sprintf("invalid BufferViews[%d].Buffer index", i))
		}
		if v.ByteOffset < 0 || v.ByteLength < 1 {
			return newErr(fmt.Sprintf("invalid BufferViews[%d] range", i))
		}
		if v.ByteStride != 0 && (v.ByteStride < 4 || v.ByteStride > 252) {
			return newErr(fmt.Sprintf("invalid BufferViews[%d].ByteStride value", i))
		}
	}
	for i := range f.Accessors {
		if err := f.Accessors[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.Meshes {
		m := &f.Meshes[i]
		if len(m.Primitives) == 0 {
			return newErr(fmt.Sprintf("Meshes[%d] has no primitives", i))
		}
		for j := range m.Primitives {
			p := &m.Primitives[j]
			for name, a := range p.Attributes {
				if a < 0 || a >= int64(len(f.Accessors)) {
					return newErr(fmt.Sprintf("invalid Meshes[%d].Primitives[%d].Attributes[%s] index", i, j, name))
				}
			}
			if !validIndex(p.Indices, len(f.Accessors)) {
				return newErr(fmt.Sprintf("invalid Meshes[%d].Primitives[%d].Indices index", i, j))
			}
			if !validIndex(p.Material, len(f.Materials)) {
				return newErr(fmt.Sprintf("invalid Meshes[%d].Primitives[%d].Material index", i, j))
			}
		}
	}
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if !validIndex(n.Mesh, len(f.Meshes)) {
			return newErr(fmt.Sprintf("invalid Nodes[%d].Mesh index", i))
		}
		for _, c := range n.Children {
			if c < 0 || c >= int64(len(f.Nodes)) || c == int64(i) {
				return newErr(fmt.Sprintf("invalid Nodes[%d].Children index", i))
			}
		}
	}
	for i := range f.Scenes {
		for _, n := range f.Scenes[i].Nodes {
			if n < 0 || n >= int64(len(f.Nodes)) {
				return newErr(fmt.Sprintf("invalid Scenes[%d].Nodes index", i))
			}
		}
	}
	return nil
}

// Check checks that a is a valid accessor of f.
func (a *Accessor) Check(f *GLTF) error {
	if !validIndex(a.BufferView, len(f.BufferViews)) {
		return newErr("invalid Accessor.BufferView index")
	}
	if a.ByteOffset < 0 {
		return newErr("invalid Accessor.ByteOffset value")
	}
	if componentSize(a.ComponentType) == 0 {
		return newErr("invalid Accessor.ComponentType value")
	}
	if a.Count < 1 {
		return newErr("invalid Accessor.Count value")
	}
	if componentCount(a.Type) == 0 {
		return newErr("invalid Accessor.Type value")
	}
	return nil
}

func componentSize(t int64) int {
	switch t {
	case BYTE, UNSIGNED_BYTE:
		return 1
	case SHORT, UNSIGNED_SHORT:
		return 2
	case UNSIGNED_INT, FLOAT:
		return 4
	}
	return 0
}

func componentCount(t string) int {
	switch t {
	case SCALAR:
		return 1
	case VEC2:
		return 2
	case VEC3:
		return 3
	case VEC4, MAT2:
		return 4
	case MAT3:
		return 9
	case MAT4:
		return 16
	}
	return 0
}
