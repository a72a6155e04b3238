package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"folio/engine"
)

func meshes(o *engine.Object) []*engine.Object {
	var out []*engine.Object
	o.Traverse(func(n *engine.Object) {
		if n.IsMesh() {
			out = append(out, n)
		}
	})
	return out
}

func TestLoadOBJWithoutMaterials(t *testing.T) {
	l := New(NewFetcher("testdata"))
	obj, err := l.Load(context.Background(), "cube.obj")
	if err != nil {
		t.Fatal(err)
	}
	if obj.Name != "cube" {
		t.Fatalf("expected root named cube, got %q", obj.Name)
	}
	ms := meshes(obj)
	if len(ms) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(ms))
	}
	g := ms[0].Geometry
	if g.TriangleCount() != 12 || len(g.Positions) != 8 {
		t.Fatalf("expected 12 triangles over 8 vertices, got %d/%d", g.TriangleCount(), len(g.Positions))
	}
	if ms[0].HasMaterial() {
		t.Fatal("expected no material")
	}
	b := engine.BoxFromObject(obj)
	if !near(b.Size().X, 1) || !near(b.Size().Y, 1) || !near(b.Size().Z, 1) {
		t.Fatalf("expected unit bounds, got %+v", b.Size())
	}
}

func TestLoadOBJMaterialGroups(t *testing.T) {
	l := New(NewFetcher("testdata"))
	obj, err := l.Load(context.Background(), "multi.obj")
	if err != nil {
		t.Fatal(err)
	}
	ms := meshes(obj)
	if len(ms) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(ms))
	}
	base, top := ms[0], ms[1]
	if base.Name != "base" || top.Name != "top" {
		t.Fatalf("unexpected mesh names %q %q", base.Name, top.Name)
	}
	if len(base.Materials) != 2 || len(base.Geometry.Groups) != 2 {
		t.Fatalf("expected 2 material groups, got %d/%d", len(base.Materials), len(base.Geometry.Groups))
	}
	if base.Geometry.MaterialIndex(0) != 0 || base.Geometry.MaterialIndex(3) != 1 {
		t.Fatal("unexpected material assignment")
	}
	steel := base.Materials[0].(*engine.StandardMaterial)
	if steel.Name != "steel" || steel.Color != engine.RGB(128, 128, 128) || !near(steel.Metalness, 0.9) || !near(steel.Roughness, 0.3) {
		t.Fatalf("unexpected steel %+v", steel)
	}
	paint := base.Materials[1].(*engine.StandardMaterial)
	if paint.Color != engine.RGB(255, 0, 0) || !(paint.Roughness > 0.1 && paint.Roughness < 0.2) {
		t.Fatalf("unexpected paint %+v", paint)
	}
	// Materials carry over into the next object and unknown names get defaults.
	if top.Materials[0].(*engine.StandardMaterial).Name != "paint" {
		t.Fatal("expected carried over material")
	}
	missing := top.Materials[1].(*engine.StandardMaterial)
	if missing.Color != engine.Hex(0xffffff) {
		t.Fatalf("expected default color, got %v", missing.Color)
	}
	if paint == top.Materials[0] {
		t.Fatal("expected meshes not to share materials")
	}
}

func TestDecodeOBJFacesBeforeUsemtl(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\nusemtl red\nf 3 2 1\ns 1\nf 2 1 3\nusemtl blue\nf 1 3 2\n"
	obj, err := DecodeOBJ(context.Background(), "m", []byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	m := meshes(obj)[0]
	if len(m.Materials) != 2 || m.Materials[0].(*engine.StandardMaterial).Name != "red" {
		t.Fatalf("expected [red, blue], got %v", m.Materials)
	}
	if m.Geometry.MaterialIndex(0) != 0 || m.Geometry.MaterialIndex(2) != 0 || m.Geometry.MaterialIndex(3) != 1 {
		t.Fatal("expected faces before usemtl to take its material")
	}
	if len(m.Geometry.Groups) != 2 {
		t.Fatalf("expected smoothing groups merged, got %d groups", len(m.Geometry.Groups))
	}
}

func TestDecodeOBJPolygonsAndVertexColors(t *testing.T) {
	src := strings.Join([]string{
		"v 0 0 0 1 0 0",
		"v 2 0 0 1 0 0",
		"v 2 2 0 0 1 0",
		"v 1 3 0 0 1 0",
		"v 0 2 0 0 0 1",
		"vt 0 0",
		"f 1/1 2/1 3/1 4/1 \\",
		"  5/1",
		"f -1 -3 -5",
	}, "\n")
	obj, err := DecodeOBJ(context.Background(), "m", []byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	g := meshes(obj)[0].Geometry
	if g.TriangleCount() != 4 || len(g.Positions) != 5 {
		t.Fatalf("expected 4 triangles over 5 vertices, got %d/%d", g.TriangleCount(), len(g.Positions))
	}
	b := engine.BoxFromObject(obj)
	if !near(b.Size().X, 2) || !near(b.Size().Y, 3) || !near(b.Size().Z, 0) {
		t.Fatalf("expected 2x3x0 bounds, got %+v", b.Size())
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	cases := map[string]string{
		"no faces":       "v 0 0 0\n",
		"bad vertex":     "v 0 x 0\n",
		"short vertex":   "v 0 0\n",
		"short face":     "v 0 0 0\nf 1 1\n",
		"out of range":   "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
		"zero index":     "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"relative range": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -1 -2 -9\n",
		"bad index":      "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 x\n",
	}
	for name, src := range cases {
		if _, err := DecodeOBJ(context.Background(), "m", []byte(src), nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadGLTFVariants(t *testing.T) {
	l := New(NewFetcher("testdata"))
	for _, src := range []string{"quad.gltf", "quad.glb", "external.gltf"} {
		obj, err := l.Load(context.Background(), src)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		ms := meshes(obj)
		if len(ms) != 1 || ms[0].Geometry.TriangleCount() != 2 {
			t.Fatalf("%s: expected one quad mesh", src)
		}
		mat := ms[0].Material().(*engine.StandardMaterial)
		if mat.Color != engine.RGB(255, 0, 0) || !near(mat.Metalness, 0.25) {
			t.Fatalf("%s: unexpected material %+v", src, mat)
		}
		// root translation (0,1,0), mesh scale 2.
		b := engine.BoxFromObject(obj)
		if !near(b.Center().Y, 1) || !near(b.Size().X, 4) {
			t.Fatalf("%s: unexpected bounds %+v", src, b)
		}
	}
}

func TestDecomposeMatchesTRS(t *testing.T) {
	want := engine.NewGroup("want")
	want.Position = engine.V3(1, 2, 3)
	want.Scale = engine.V3(2, 3, 4)
	want.Rotation = engine.V3(0.3, -0.7, 1.1)
	m := want.LocalMatrix()

	got := engine.NewGroup("got")
	decompose(got, m)
	gm := got.LocalMatrix()
	for i := range m {
		if !near(m[i], gm[i]) {
			t.Fatalf("matrix mismatch at %d: %v vs %v", i, m[i], gm[i])
		}
	}
}

func TestLoadUnsupportedAndMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/model.stl", []byte("solid x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(NewFetcher(dir))
	if _, err := l.Load(context.Background(), "model.stl"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := l.Load(context.Background(), "nope.obj"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.Load(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty source, got %v", err)
	}
}

func TestLoadDataURI(t *testing.T) {
	l := New(nil)
	src := "data:model/obj," + strings.ReplaceAll("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", "\n", "%0A")
	obj, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes(obj)) != 1 {
		t.Fatal("expected one mesh")
	}
}

func TestFetcherRootConfinement(t *testing.T) {
	f := NewFetcher("testdata")
	if _, err := f.Fetch(context.Background(), "../loader.go"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound outside root, got %v", err)
	}
}

func TestFetcherHTTP(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		ua.Store(r.UserAgent())
		if r.URL.Path == "/missing.obj" {
			http.NotFound(w, r)
			return
		}
		<-release
		w.Write([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	}))
	defer srv.Close()

	f := NewFetcher("")
	f.UserAgent = "folio-test"
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Fetch(context.Background(), srv.URL+"/tri.obj")
			errs <- err
		}()
	}
	// Let the callers pile up on the shared request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}
	if got := ua.Load(); got != "folio-test" {
		t.Fatalf("expected user agent folio-test, got %v", got)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.obj"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetcherHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewFetcher("").Fetch(ctx, srv.URL+"/slow.obj")
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected fetch to return after cancel")
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		src  string
		data string
		want Format
	}{
		{"a/b/model.OBJ", "", FormatOBJ},
		{"https://x/y.gltf?v=2", "", FormatGLTF},
		{"model.glb", "", FormatGLB},
		{"model.bin", "glTF....", FormatGLB},
		{"model", ` {"asset":{}}`, FormatGLTF},
		{"data:model/obj,v", "v", FormatOBJ},
		{"model.stl", "solid", FormatUnknown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.src, []byte(tc.data)); got != tc.want {
			t.Fatalf("DetectFormat(%q)=%v want %v", tc.src, got, tc.want)
		}
	}
}

func TestResolveRef(t *testing.T) {
	cases := []struct{ base, ref, want string }{
		{"models/a.obj", "a.mtl", "models/a.mtl"},
		{"https://cdn/x/a.gltf", "a.bin", "https://cdn/x/a.bin"},
		{"a.gltf", "data:,x", "data:,x"},
		{"models/a.obj", "/abs/a.mtl", "/abs/a.mtl"},
		{"https://cdn/x/a.gltf", "/y/a.bin", "https://cdn/y/a.bin"},
	}
	for _, tc := range cases {
		if got := ResolveRef(tc.base, tc.ref); got != tc.want {
			t.Fatalf("ResolveRef(%q, %q)=%q want %q", tc.base, tc.ref, got, tc.want)
		}
	}
}

func near(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestFetcherRef(t *testing.T) {
	confined := NewFetcher("testdata")
	cases := []struct {
		base, ref, want string
		forbidden       bool
	}{
		{base: "https://a.test/m/x.obj", ref: "x.mtl", want: "https://a.test/m/x.mtl"},
		{base: "https://a.test/m/x.obj", ref: "/etc/x.mtl", want: "https://a.test/etc/x.mtl"},
		{base: "https://a.test/m/x.obj", ref: "file:///etc/passwd", forbidden: true},
		{base: "https://a.test/m/x.obj", ref: "https://b.test/x.mtl", forbidden: true},
		{base: "https://a.test/m/x.obj", ref: "http://a.test/m/x.mtl", forbidden: true},
		{base: "models/x.obj", ref: "../x.mtl", want: "x.mtl"},
		{base: "models/x.obj", ref: "data:,x", want: "data:,x"},
		{base: "models/x.obj", ref: "file:///etc/passwd", forbidden: true},
		{base: "models/x.obj", ref: "https://b.test/x.mtl", forbidden: true},
	}
	for _, tc := range cases {
		got, err := confined.Ref(tc.base, tc.ref)
		if tc.forbidden {
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("Ref(%q, %q): expected ErrForbidden, got %q, %v", tc.base, tc.ref, got, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("Ref(%q, %q)=%q, %v want %q", tc.base, tc.ref, got, err, tc.want)
		}
	}

	if got, err := NewFetcher("").Ref("https://a.test/m/x.obj", "file:///etc/passwd"); err != nil || got != "file:///etc/passwd" {
		t.Fatalf("expected unconfined fetcher to pass file URLs, got %q, %v", got, err)
	}
}

func TestLoadConfinesReferences(t *testing.T) {
	doc, err := os.ReadFile("testdata/external.gltf")
	if err != nil {
		t.Fatal(err)
	}
	bin, err := os.ReadFile("testdata/quad.bin")
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs("testdata/quad.bin")
	if err != nil {
		t.Fatal(err)
	}
	local := strings.Replace(string(doc), `"quad.bin"`, strconv.Quote("file://"+filepath.ToSlash(abs)), 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/m/quad.gltf":
			w.Write(doc)
		case "/m/local.gltf":
			w.Write([]byte(local))
		case "/m/quad.bin":
			w.Write(bin)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	confined := New(NewFetcher(t.TempDir()))
	if _, err := confined.Load(ctx, srv.URL+"/m/quad.gltf"); err != nil {
		t.Fatalf("expected same-origin buffer to load, got %v", err)
	}
	if _, err := confined.Load(ctx, srv.URL+"/m/local.gltf"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a file buffer, got %v", err)
	}
	if _, err := New(NewFetcher("")).Load(ctx, srv.URL+"/m/local.gltf"); err != nil {
		t.Fatalf("expected unconfined fetcher to follow the file buffer, got %v", err)
	}
}
