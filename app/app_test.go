package app

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"folio/engine/loader"
	"folio/hal"
)

func newTestApp(t *testing.T, cfg Config) (*App, *hal.Loop, *hal.Box) {
	t.Helper()
	loop := hal.NewLoop()
	box := hal.NewBox(32, 24)
	a := New(cfg, nil, loop, box, loader.New(nil))
	t.Cleanup(a.Close)
	return a, loop, box
}

func press(box *hal.Box, r rune) {
	box.SendKey(hal.KeyEvent{Press: true, Rune: r})
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	yml := "src: models/chair.obj\nhz: 30\ncycle: 5s\nmodels: [a.obj, b.glb]\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOLIO_HZ", "45")
	t.Setenv("FOLIO_AUTO_ROTATE", "false")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Src != "models/chair.obj" {
		t.Fatalf("expected src from file, got %q", cfg.Src)
	}
	if cfg.Hz != 45 {
		t.Fatalf("expected hz from env, got %d", cfg.Hz)
	}
	if cfg.AutoRotate {
		t.Fatal("expected auto-rotate disabled by env")
	}
	if cfg.Cycle != 5*time.Second {
		t.Fatalf("expected 5s cycle, got %v", cfg.Cycle)
	}
	if len(cfg.Models) != 2 || cfg.Models[1] != "b.glb" {
		t.Fatalf("unexpected models %v", cfg.Models)
	}
	if cfg.Background != DefaultConfig().Background || cfg.Width != 960 {
		t.Fatalf("expected defaults kept, got %+v", cfg)
	}
}

func TestLoadConfigEnvList(t *testing.T) {
	t.Setenv("FOLIO_MODELS", "a.obj,builtin:cube")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got := cfg.Playlist(); len(got) != 2 || got[1] != "builtin:cube" {
		t.Fatalf("unexpected playlist %v", got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	t.Setenv("FOLIO_WIDTH", "wide")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for bad env value")
	}
}

func TestPlaylist(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Playlist(); len(got) != 2 {
		t.Fatalf("expected builtin playlist, got %v", got)
	}
	cfg.Src = "chair.obj"
	if got := cfg.Playlist(); len(got) != 1 || got[0] != "chair.obj" {
		t.Fatalf("expected single model, got %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", true); err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	if _, err := NewLogger("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestMountUnmount(t *testing.T) {
	a, loop, box := newTestApp(t, DefaultConfig())

	if err := a.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := a.Mount(); err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if len(box.Children()) != 1 {
		t.Fatalf("expected one canvas, got %d", len(box.Children()))
	}

	press(box, 'u')
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if a.Mounted() || len(box.Children()) != 0 {
		t.Fatal("expected unmounted")
	}
	if f, r := loop.Subscribers(); f != 0 || r != 0 {
		t.Fatalf("expected no subscriptions, got %d and %d", f, r)
	}

	press(box, 'u')
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !a.Mounted() || len(box.Children()) != 1 {
		t.Fatal("expected remounted")
	}
}

func TestKeys(t *testing.T) {
	a, _, box := newTestApp(t, DefaultConfig())
	if err := a.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}

	press(box, 'n')
	press(box, 'r')
	press(box, 'b')
	box.SendKey(hal.KeyEvent{Rune: 'n'}) // release, ignored
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if a.Current() != "builtin:cube" {
		t.Fatalf("expected cube, got %q", a.Current())
	}
	if a.rotate {
		t.Fatal("expected auto-rotate toggled off")
	}
	if a.backgroundColor() != backgrounds[1] {
		t.Fatalf("expected second background, got %q", a.backgroundColor())
	}

	box.SendKey(hal.KeyEvent{Code: hal.KeyEscape, Press: true})
	if err := a.Step(); !errors.Is(err, ErrQuit) {
		t.Fatalf("expected ErrQuit, got %v", err)
	}
}

func TestNextWrapsWhileUnmounted(t *testing.T) {
	a, _, _ := newTestApp(t, DefaultConfig())
	a.Next()
	a.Next()
	if a.Current() != "builtin:torus" {
		t.Fatalf("expected wrap to torus, got %q", a.Current())
	}
}

func TestCycleTimer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cycle = time.Second
	a, _, _ := newTestApp(t, cfg)

	now := time.Unix(100, 0)
	a.now = func() time.Time { return now }
	if err := a.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}

	now = now.Add(500 * time.Millisecond)
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if a.Current() != "builtin:torus" {
		t.Fatalf("expected no switch yet, got %q", a.Current())
	}

	now = now.Add(time.Second)
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if a.Current() != "builtin:cube" {
		t.Fatalf("expected switch to cube, got %q", a.Current())
	}
}

func TestSnapshot(t *testing.T) {
	a, loop, _ := newTestApp(t, DefaultConfig())
	if err := a.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}
	loop.Step()

	path := filepath.Join(t.TempDir(), "shot.png")
	if err := a.Snapshot(path); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Fatalf("expected 32x24, got %v", b)
	}
}
