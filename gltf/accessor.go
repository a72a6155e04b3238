package gltf

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DecodeDataURI decodes a base64 "data:" URI. ok is false if uri is not a
// data URI.
func DecodeDataURI(uri string) (data []byte, ok bool, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, false, nil
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, true, newErr("malformed data URI")
	}
	meta := uri[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, true, newErr("data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, true, wrapErr("data URI", err)
	}
	return data, true, nil
}

// view returns the bytes of accessor a and the stride between elements.
// buffers holds the resolved contents of f.Buffers.
func (f *GLTF) view(a *Accessor, buffers [][]byte) (data []byte, stride int, err error) {
	if a.BufferView == nil {
		return nil, 0, nil
	}
	v := &f.BufferViews[*a.BufferView]
	if int(v.Buffer) >= len(buffers) {
		return nil, 0, newErr("unresolved buffer")
	}
	buf := buffers[v.Buffer]
	end := v.ByteOffset + v.ByteLength
	if end > int64(len(buf)) {
		return nil, 0, newErr("buffer view out of range")
	}
	data = buf[v.ByteOffset:end]

	elem := componentSize(a.ComponentType) * componentCount(a.Type)
	stride = int(v.ByteStride)
	if stride == 0 {
		stride = elem
	}
	need := a.ByteOffset + int64(stride)*(a.Count-1) + int64(elem)
	if need > int64(len(data)) {
		return nil, 0, newErr("accessor out of range")
	}
	return data[a.ByteOffset:], stride, nil
}

func (f *GLTF) accessor(i int) (*Accessor, error) {
	if i < 0 || i >= len(f.Accessors) {
		return nil, newErr(fmt.Sprintf("invalid accessor index %d", i))
	}
	return &f.Accessors[i], nil
}

// ReadFloats reads accessor i as float32 values, converting normalized
// integer components. It returns the values flattened and the number of
// components per element.
func (f *GLTF) ReadFloats(i int, buffers [][]byte) (out []float32, n int, err error) {
	a, err := f.accessor(i)
	if err != nil {
		return nil, 0, err
	}
	n = componentCount(a.Type)
	data, stride, err := f.view(a, buffers)
	if err != nil {
		return nil, 0, err
	}
	out = make([]float32, int(a.Count)*n)
	if data == nil {
		// No buffer view: all zeros.
		return out, n, nil
	}
	size := componentSize(a.ComponentType)
	for e := 0; e < int(a.Count); e++ {
		for c := 0; c < n; c++ {
			b := data[e*stride+c*size:]
			out[e*n+c] = readComponent(b, a.ComponentType, a.Normalized)
		}
	}
	return out, n, nil
}

// ReadIndices reads scalar accessor i as vertex indices.
func (f *GLTF) ReadIndices(i int, buffers [][]byte) ([]uint32, error) {
	a, err := f.accessor(i)
	if err != nil {
		return nil, err
	}
	if a.Type != SCALAR {
		return nil, newErr("index accessor is not SCALAR")
	}
	data, stride, err := f.view(a, buffers)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, newErr("index accessor without buffer view")
	}
	out := make([]uint32, a.Count)
	for e := range out {
		b := data[e*stride:]
		switch a.ComponentType {
		case UNSIGNED_BYTE:
			out[e] = uint32(b[0])
		case UNSIGNED_SHORT:
			out[e] = uint32(binary.LittleEndian.Uint16(b))
		case UNSIGNED_INT:
			out[e] = binary.LittleEndian.Uint32(b)
		default:
			return nil, newErr("invalid index component type")
		}
	}
	return out, nil
}

func readComponent(b []byte, typ int64, normalized bool) float32 {
	switch typ {
	case FLOAT:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case BYTE:
		v := float32(int8(b[0]))
		if normalized {
			return max(v/127, -1)
		}
		return v
	case UNSIGNED_BYTE:
		v := float32(b[0])
		if normalized {
			return v / 255
		}
		return v
	case SHORT:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return max(v/32767, -1)
		}
		return v
	case UNSIGNED_SHORT:
		v := float32(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case UNSIGNED_INT:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}
