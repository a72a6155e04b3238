package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Src   string  `env:"FOLIO_TEST_SRC" envDefault:"builtin:torus" yaml:"src"`
	Hz    int     `env:"FOLIO_TEST_HZ" envDefault:"60" yaml:"hz"`
	Speed float64 `env:"FOLIO_TEST_SPEED" yaml:"speed"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Src != "builtin:torus" || cfg.Hz != 60 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_TEST_HZ", "30")
	t.Setenv("FOLIO_TEST_SPEED", "2.5")
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Hz != 30 || cfg.Speed != 2.5 {
		t.Fatalf("expected env values, got %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("FOLIO_TEST_HZ", "fast")
	var cfg testConfig
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadYAMLOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	if err := os.WriteFile(path, []byte("hz: 24\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig{Src: "a.obj", Hz: 60}
	if err := LoadYAML(path, &cfg, false); err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if cfg.Hz != 24 || cfg.Src != "a.obj" {
		t.Fatalf("expected hz overlaid and src kept, got %+v", cfg)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	var cfg testConfig
	if err := LoadYAML(path, &cfg, true); err != nil {
		t.Fatalf("expected optional file to be skipped, got %v", err)
	}
	if err := LoadYAML(path, &cfg, false); err == nil {
		t.Fatal("expected error for required file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("hz: [1, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg testConfig
	err := LoadYAML(path, &cfg, false)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
