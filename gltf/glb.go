package gltf

import (
	"bytes"
	"encoding/binary"
	"io"
)

// GLB header and chunk layout.
const (
	glbMagic      = 0x46546c67 // "glTF"
	glbVersion    = 2
	glbHeaderSize = 12
	chunkHeadSize = 8

	chunkJSON = 0x4e4f534a
	chunkBIN  = 0x004e4942
)

// IsGLB reports whether r starts with a binary glTF (version 2) header.
// It consumes the header.
func IsGLB(r io.Reader) bool {
	var h [3]uint32
	if err := binary.Read(r, binary.LittleEndian, h[:]); err != nil {
		return false
	}
	return h[0] == glbMagic && h[1] == glbVersion
}

// ParseGLB splits a GLB blob into its decoded JSON document and its BIN
// chunk. bin is nil if the blob carries no BIN chunk.
func ParseGLB(data []byte) (f *GLTF, bin []byte, err error) {
	if len(data) < glbHeaderSize || !IsGLB(bytes.NewReader(data)) {
		return nil, nil, newErr("not a GLB blob")
	}
	total := int(binary.LittleEndian.Uint32(data[8:]))
	if total > len(data) || total < glbHeaderSize {
		return nil, nil, newErr("truncated GLB blob")
	}
	data = data[:total]

	var js []byte
	for off := glbHeaderSize; off+chunkHeadSize <= len(data); {
		n := int(binary.LittleEndian.Uint32(data[off:]))
		typ := binary.LittleEndian.Uint32(data[off+4:])
		start := off + chunkHeadSize
		if n < 0 || start+n > len(data) {
			return nil, nil, newErr("invalid GLB chunk length")
		}
		switch {
		case typ == chunkJSON && js == nil:
			if off != glbHeaderSize {
				return nil, nil, newErr("GLB JSON chunk is not first")
			}
			js = data[start : start+n]
		case typ == chunkBIN && bin == nil && js != nil:
			bin = data[start : start+n]
		}
		// Chunks are 4-byte aligned.
		off = start + (n+3)&^3
	}
	if len(js) == 0 {
		return nil, nil, newErr("invalid GLB chunk")
	}
	f, err = Decode(bytes.NewReader(js))
	if err != nil {
		return nil, nil, err
	}
	return f, bin, nil
}

// EncodeGLB writes f and bin as a GLB blob.
func EncodeGLB(w io.Writer, f *GLTF, bin []byte) error {
	var js bytes.Buffer
	if err := Encode(&js, f); err != nil {
		return err
	}
	for js.Len()%4 != 0 {
		js.WriteByte(' ')
	}
	binLen := (len(bin) + 3) &^ 3
	total := glbHeaderSize + chunkHeadSize + js.Len()
	if bin != nil {
		total += chunkHeadSize + binLen
	}

	var out bytes.Buffer
	out.Grow(total)
	put := func(v uint32) { _ = binary.Write(&out, binary.LittleEndian, v) }
	put(glbMagic)
	put(glbVersion)
	put(uint32(total))
	put(uint32(js.Len()))
	put(chunkJSON)
	out.Write(js.Bytes())
	if bin != nil {
		put(uint32(binLen))
		put(chunkBIN)
		out.Write(bin)
		for i := len(bin); i < binLen; i++ {
			out.WriteByte(0)
		}
	}
	_, err := w.Write(out.Bytes())
	return err
}
