package gltf

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func openQuad(t *testing.T) *GLTF {
	t.Helper()
	file, err := os.Open("testdata/quad.gltf")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	f, err := Decode(file)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestDecodeAndCheck(t *testing.T) {
	f := openQuad(t)
	if err := f.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if f.DefaultScene() != 0 {
		t.Fatalf("expected default scene 0, got %d", f.DefaultScene())
	}
	pbr := f.Materials[0].PBRMetallicRoughness
	if pbr.BaseColor() != [4]float32{1, 0, 0, 1} || pbr.Metallic() != 0.25 || pbr.Roughness() != 0.5 {
		t.Fatalf("unexpected material %+v", pbr)
	}
	var nilPBR *PBRMetallicRoughness
	if nilPBR.Metallic() != 1 || nilPBR.Roughness() != 1 {
		t.Fatal("expected default factors of 1")
	}
}

func TestReadAccessors(t *testing.T) {
	f := openQuad(t)
	data, ok, err := DecodeDataURI(f.Buffers[0].URI)
	if !ok || err != nil {
		t.Fatalf("DecodeDataURI: ok=%v err=%v", ok, err)
	}
	bufs := [][]byte{data}

	pos, n, err := f.ReadFloats(0, bufs)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || len(pos) != 12 {
		t.Fatalf("expected 4 VEC3, got n=%d len=%d", n, len(pos))
	}
	if pos[3] != 1 || pos[4] != -1 {
		t.Fatalf("unexpected second vertex %v", pos[3:6])
	}

	idx, err := f.ReadIndices(1, bufs)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("expected indices %v, got %v", want, idx)
		}
	}

	if _, err := f.ReadIndices(0, bufs); err == nil {
		t.Fatal("expected error reading VEC3 accessor as indices")
	}
	if _, _, err := f.ReadFloats(7, bufs); err == nil {
		t.Fatal("expected error for out of range accessor")
	}
}

func TestReadFloatsOutOfRange(t *testing.T) {
	f := openQuad(t)
	if _, _, err := f.ReadFloats(0, [][]byte{make([]byte, 8)}); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestGLB(t *testing.T) {
	b, err := os.ReadFile("testdata/quad.glb")
	if err != nil {
		t.Fatal(err)
	}
	if !IsGLB(bytes.NewReader(b)) {
		t.Fatal("IsGLB(file): expected true")
	}
	if IsGLB(strings.NewReader(`{"asset":{"version":"2.0"}}`)) {
		t.Fatal("IsGLB(json): expected false")
	}
	f, bin, err := ParseGLB(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(bin) < 62 {
		t.Fatalf("expected BIN chunk of at least 62 bytes, got %d", len(bin))
	}
	if err := f.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	idx, err := f.ReadIndices(1, [][]byte{bin})
	if err != nil || len(idx) != 6 {
		t.Fatalf("expected 6 indices, got %v (%v)", idx, err)
	}
}

func TestGLBRoundTrip(t *testing.T) {
	f := openQuad(t)
	data, _, _ := DecodeDataURI(f.Buffers[0].URI)
	f.Buffers[0].URI = ""

	var buf bytes.Buffer
	if err := EncodeGLB(&buf, f, data); err != nil {
		t.Fatal(err)
	}
	if buf.Len()%4 != 0 {
		t.Fatalf("expected 4-byte aligned blob, got %d bytes", buf.Len())
	}
	g, bin, err := ParseGLB(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Meshes) != 1 || !bytes.Equal(bin[:len(data)], data) {
		t.Fatal("expected round trip to preserve mesh and BIN chunk")
	}
}

func TestParseGLBRejectsGarbage(t *testing.T) {
	for _, b := range [][]byte{nil, []byte("glTF"), bytes.Repeat([]byte{0}, 32)} {
		if _, _, err := ParseGLB(b); err == nil || !strings.HasPrefix(err.Error(), "gltf: ") {
			t.Fatalf("expected gltf error for %q, got %v", b, err)
		}
	}
}

func TestCheckRejectsBadReferences(t *testing.T) {
	bad := int64(5)
	cases := map[string]func(f *GLTF){
		"version":  func(f *GLTF) { f.Asset.Version = "1.0" },
		"scene":    func(f *GLTF) { f.Scene = &bad },
		"mesh":     func(f *GLTF) { f.Nodes[1].Mesh = &bad },
		"material": func(f *GLTF) { f.Meshes[0].Primitives[0].Material = &bad },
		"child":    func(f *GLTF) { f.Nodes[0].Children = []int64{0} },
		"type":     func(f *GLTF) { f.Accessors[0].Type = "VEC5" },
		"count":    func(f *GLTF) { f.Accessors[0].Count = 0 },
		"buffer":   func(f *GLTF) { f.BufferViews[0].Buffer = 3 },
	}
	for name, mutate := range cases {
		f := openQuad(t)
		mutate(f)
		if err := f.Check(); err == nil {
			t.Fatalf("%s: expected Check to fail", name)
		}
	}
}

func TestDecodeDataURI(t *testing.T) {
	if _, ok, _ := DecodeDataURI("cube.bin"); ok {
		t.Fatal("expected non-data URI to be ignored")
	}
	if _, ok, err := DecodeDataURI("data:text/plain,hello"); !ok || err == nil {
		t.Fatal("expected error for non-base64 data URI")
	}
	b, ok, err := DecodeDataURI("data:application/octet-stream;base64,AAEC")
	if !ok || err != nil || !bytes.Equal(b, []byte{0, 1, 2}) {
		t.Fatalf("unexpected decode %v %v %v", b, ok, err)
	}
}
