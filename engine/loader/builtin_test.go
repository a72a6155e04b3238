package loader

import (
	"context"
	"errors"
	"testing"

	"folio/engine"
)

func TestBuiltinTorus(t *testing.T) {
	obj, err := New(nil).Load(context.Background(), "builtin:torus?major=1&minor=0.25&segments=16")
	if err != nil {
		t.Fatal(err)
	}
	ms := meshes(obj)
	if len(ms) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(ms))
	}
	g := ms[0].Geometry
	if len(g.Positions) != 16*8 || g.TriangleCount() != 16*8*2 {
		t.Fatalf("unexpected torus %d vertices %d triangles", len(g.Positions), g.TriangleCount())
	}
	size := engine.BoxFromObject(obj).Size()
	if !near(size.X, 2.5) || !near(size.Y, 0.5) {
		t.Fatalf("expected 2.5 x 0.5 bounds, got %+v", size)
	}
	if ms[0].HasMaterial() {
		t.Fatal("expected no material")
	}
}

func TestBuiltinCube(t *testing.T) {
	obj, err := Builtin("builtin:cube?size=2")
	if err != nil {
		t.Fatal(err)
	}
	b := engine.BoxFromObject(obj)
	if !near(b.Size().X, 2) || !near(b.Center().Y, 0) {
		t.Fatalf("unexpected cube bounds %+v", b)
	}
	if meshes(obj)[0].Geometry.TriangleCount() != 12 {
		t.Fatal("expected 12 triangles")
	}
}

func TestBuiltinErrors(t *testing.T) {
	if _, err := Builtin("builtin:teapot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, src := range []string{"builtin:cube?size=-1", "builtin:torus?segments=2", "builtin:torus?minor=x"} {
		if _, err := Builtin(src); err == nil {
			t.Fatalf("%s: expected error", src)
		}
	}
	if _, err := Builtin("cube.obj"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
