package engine

import (
	"testing"

	"github.com/chewxy/math32"
)

func near(a, b float32) bool { return math32.Abs(a-b) < 1e-4 }

func nearV3(a, b Vec3) bool { return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z) }

func TestMat4MulIdentity(t *testing.T) {
	a := Mat4Identity()
	b := Mat4Translate(V3(1, 2, 3))
	if got := Mat4Mul(a, b); got != b {
		t.Fatalf("identity*a mismatch")
	}
	if got := Mat4Mul(b, a); got != b {
		t.Fatalf("a*identity mismatch")
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := V3(0, 0.75, 3)
	m := Mat4LookAt(eye, V3(0, 0, 0), V3(0, 1, 0))
	if got := m.TransformPoint(eye); !nearV3(got, Vec3{}) {
		t.Fatalf("expected eye at origin, got %+v", got)
	}
	// The target lies straight ahead on -Z.
	got := m.TransformPoint(Vec3{})
	if !near(got.X, 0) || !near(got.Y, 0) || got.Z >= 0 {
		t.Fatalf("expected target on -Z axis, got %+v", got)
	}
}

func TestQuatMatchesAxisRotation(t *testing.T) {
	half := math32.Pi / 4 // 90° about Y
	q := Mat4Quat(0, math32.Sin(half), 0, math32.Cos(half))
	r := Mat4RotateY(math32.Pi / 2)
	for i := range q {
		if !near(q[i], r[i]) {
			t.Fatalf("quat/axis mismatch at %d: %v vs %v", i, q[i], r[i])
		}
	}
}

func TestWorldMatrixComposesParents(t *testing.T) {
	parent := NewGroup("parent")
	parent.Position = V3(1, 0, 0)
	parent.Scale = V3(2, 2, 2)
	child := NewGroup("child")
	child.Position = V3(0, 1, 0)
	parent.Add(child)

	got := child.WorldMatrix().TransformPoint(Vec3{})
	if !nearV3(got, V3(1, 2, 0)) {
		t.Fatalf("expected (1,2,0), got %+v", got)
	}
}

func TestColorParse(t *testing.T) {
	cases := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#101012", Hex(0x101012), true},
		{"#fff", RGB(0xFF, 0xFF, 0xFF), true},
		{"  #FF0000 ", RGB(0xFF, 0, 0), true},
		{"navy", RGB(0, 0, 0x80), true},
		{"Navy", RGB(0, 0, 0x80), true},
		{"", Color{}, false},
		{"#12", Color{}, false},
		{"not-a-color", Color{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseColor(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseColor(%q)=%v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if got := ParseColorOr("bogus", Hex(0x101012)); got != Hex(0x101012) {
		t.Fatalf("expected fallback, got %v", got)
	}
}

func TestColorString(t *testing.T) {
	if got := Hex(0xb0b0b0).String(); got != "#b0b0b0" {
		t.Fatalf("expected #b0b0b0, got %q", got)
	}
}
