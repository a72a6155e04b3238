// Package gltf implements the subset of glTF 2.0 that the viewer loads:
// the JSON document model, the GLB container and typed accessor reads.
package gltf

import (
	"encoding/json"
	"io"
)

// GLTF is the root document.
type GLTF struct {
	ExtensionsUsed     []string     `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string     `json:"extensionsRequired,omitempty"`
	Accessors          []Accessor   `json:"accessors,omitempty"`
	Asset              Asset        `json:"asset"`
	Buffers            []Buffer     `json:"buffers,omitempty"`
	BufferViews        []BufferView `json:"bufferViews,omitempty"`
	Images             []Image      `json:"images,omitempty"`
	Materials          []Material   `json:"materials,omitempty"`
	Meshes             []Mesh       `json:"meshes,omitempty"`
	Nodes              []Node       `json:"nodes,omitempty"`
	Scene              *int64       `json:"scene,omitempty"`
	Scenes             []Scene      `json:"scenes,omitempty"`
	Textures           []Texture    `json:"textures,omitempty"`
	Extras             any          `json:"extras,omitempty"`
}

type Asset struct {
	Copyright  string `json:"copyright,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
}

// Accessor is a typed view into a buffer view.
type Accessor struct {
	BufferView    *int64    `json:"bufferView,omitempty"`
	ByteOffset    int64     `json:"byteOffset,omitempty"`
	ComponentType int64     `json:"componentType"`
	Normalized    bool      `json:"normalized,omitempty"`
	Count         int64     `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max,omitempty"`
	Min           []float32 `json:"min,omitempty"`
	Name          string    `json:"name,omitempty"`
}

// Accessor.ComponentType values.
const (
	BYTE           = 5120
	UNSIGNED_BYTE  = 5121
	SHORT          = 5122
	UNSIGNED_SHORT = 5123
	UNSIGNED_INT   = 5125
	FLOAT          = 5126
)

// Accessor.Type values.
const (
	SCALAR = "SCALAR"
	VEC2   = "VEC2"
	VEC3   = "VEC3"
	VEC4   = "VEC4"
	MAT2   = "MAT2"
	MAT3   = "MAT3"
	MAT4   = "MAT4"
)

// Buffer is a block of binary data. A missing URI refers to the GLB BIN chunk.
type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int64  `json:"byteLength"`
	Name       string `json:"name,omitempty"`
}

type BufferView struct {
	Buffer     int64  `json:"buffer"`
	ByteOffset int64  `json:"byteOffset,omitempty"`
	ByteLength int64  `json:"byteLength"`
	ByteStride int64  `json:"byteStride,omitempty"` // 0 for tightly packed.
	Target     int64  `json:"target,omitempty"`
	Name       string `json:"name,omitempty"`
}

type Image struct {
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int64 `json:"bufferView,omitempty"`
	Name       string `json:"name,omitempty"`
}

type Texture struct {
	Sampler *int64 `json:"sampler,omitempty"`
	Source  *int64 `json:"source,omitempty"`
	Name    string `json:"name,omitempty"`
}

type TextureInfo struct {
	Index    int64 `json:"index"`
	TexCoord int64 `json:"texCoord,omitempty"`
}

type Material struct {
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	EmissiveFactor       *[3]float32           `json:"emissiveFactor,omitempty"`
	AlphaMode            string                `json:"alphaMode,omitempty"`
	AlphaCutoff          *float32              `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                  `json:"doubleSided,omitempty"`
	Name                 string                `json:"name,omitempty"`
}

// PBRMetallicRoughness holds factors whose absence means 1.
type PBRMetallicRoughness struct {
	BaseColorFactor  *[4]float32  `json:"baseColorFactor,omitempty"`
	BaseColorTexture *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor   *float32     `json:"metallicFactor,omitempty"`
	RoughnessFactor  *float32     `json:"roughnessFactor,omitempty"`
}

// BaseColor returns the base color factor or its default.
func (p *PBRMetallicRoughness) BaseColor() [4]float32 {
	if p == nil || p.BaseColorFactor == nil {
		return [4]float32{1, 1, 1, 1}
	}
	return *p.BaseColorFactor
}

// Metallic returns the metallic factor or its default.
func (p *PBRMetallicRoughness) Metallic() float32 {
	if p == nil || p.MetallicFactor == nil {
		return 1
	}
	return *p.MetallicFactor
}

// Roughness returns the roughness factor or its default.
func (p *PBRMetallicRoughness) Roughness() float32 {
	if p == nil || p.RoughnessFactor == nil {
		return 1
	}
	return *p.RoughnessFactor
}

type Mesh struct {
	Primitives []Primitive `json:"primitives"`
	Name       string      `json:"name,omitempty"`
}

type Primitive struct {
	Attributes map[string]int64 `json:"attributes"`
	Indices    *int64           `json:"indices,omitempty"`
	Material   *int64           `json:"material,omitempty"`
	Mode       *int64           `json:"mode,omitempty"` // Default is TRIANGLES.
}

// Primitive.Mode values.
const (
	POINTS = iota
	LINES
	LINE_LOOP
	LINE_STRIP
	TRIANGLES
	TRIANGLE_STRIP
	TRIANGLE_FAN
)

// Attribute names.
const (
	POSITION   = "POSITION"
	NORMAL     = "NORMAL"
	TEXCOORD_0 = "TEXCOORD_0"
)

// DrawMode returns the primitive topology.
func (p *Primitive) DrawMode() int64 {
	if p.Mode == nil {
		return TRIANGLES
	}
	return *p.Mode
}

// Node is a scene graph node. Matrix and TRS are mutually exclusive.
type Node struct {
	Children    []int64      `json:"children,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Mesh        *int64       `json:"mesh,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Name        string       `json:"name,omitempty"`
}

type Scene struct {
	Nodes []int64 `json:"nodes,omitempty"`
	Name  string  `json:"name,omitempty"`
}

// DefaultScene returns the index of the scene to display, or -1 if the
// document has none.
func (f *GLTF) DefaultScene() int {
	if len(f.Scenes) == 0 {
		return -1
	}
	if f.Scene != nil {
		return int(*f.Scene)
	}
	return 0
}

// Encode encodes f into w.
func Encode(w io.Writer, f *GLTF) error {
	return json.NewEncoder(w).Encode(f)
}

// Decode decodes r into a new GLTF instance.
func Decode(r io.Reader) (*GLTF, error) {
	var f GLTF
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, wrapErr("decode", err)
	}
	return &f, nil
}
