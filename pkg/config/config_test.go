package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}

	pc, err := cfg.PlacementConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := placement.DefaultConfig()
	if pc.Width != want.Width || pc.Height != want.Height || pc.Index != want.Index {
		t.Errorf("PlacementConfig() = %+v, want %+v", pc, want)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestParse(t *testing.T) {
	const input = `
[label]
width = 8
gap = 0.5

[index]
kind = "grid"

[cache.redis]
addr = "localhost:6379"

[server]
read_timeout = "3s"
`
	cfg, err := Parse([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Label.Width != 8 || cfg.Label.Gap != 0.5 {
		t.Errorf("label = %+v", cfg.Label)
	}
	if cfg.Label.Height != placement.DefaultHeight {
		t.Errorf("absent height should keep default, got %g", cfg.Label.Height)
	}
	if cfg.Index.Kind != "grid" {
		t.Errorf("index = %q", cfg.Index.Kind)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.Cache.Redis.Addr)
	}
	if cfg.Server.ReadTimeout.Duration != 3*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout.Duration != DefaultShutdownTimeout {
		t.Errorf("absent shutdown timeout should keep default, got %v", cfg.Server.ShutdownTimeout)
	}

	opts := cfg.PipelineOptions()
	if opts.Width != 8 || opts.Gap == nil || *opts.Gap != 0.5 || opts.Index != "grid" {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
}

func TestParseOffsets(t *testing.T) {
	const input = `
[[label.offsets]]
dx = 1
dy = 1

[[label.offsets]]
dx = -7
dy = 1
`
	cfg, err := Parse([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	pc, err := cfg.PlacementConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(pc.Offsets) != 2 || pc.Offsets[1] != (placement.Offset{DX: -7, DY: 1}) {
		t.Errorf("offsets = %v", pc.Offsets)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", "[label\nwidth = 1"},
		{"unknown key", "[label]\nwdith = 3"},
		{"unknown index", "[index]\nkind = \"rtree\""},
		{"zero width", "[label]\nwidth = 0"},
		{"negative gap", "[label]\ngap = -1"},
		{"bad duration", "[server]\nread_timeout = \"soon\""},
		{"negative max points", "[server]\nmax_points = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestUnknownKeysAreNamed(t *testing.T) {
	_, err := Parse([]byte("[label]\nwdith = 3\n[cache]\nttl = 1"))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := errors.UserMessage(err)
	if !strings.Contains(msg, "label.wdith") || !strings.Contains(msg, "cache.ttl") {
		t.Errorf("message should list unknown keys, got %q", msg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Label.Width = 10
	cfg.Index.Kind = "linear"
	cfg.Server.ReadTimeout = Duration{time.Minute}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label.Width != 10 || got.Index.Kind != "linear" || got.Server.ReadTimeout.Duration != time.Minute {
		t.Errorf("round trip lost settings: %+v", got)
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "nope.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing path: err = %v, want FILE_NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should not fail: %v", err)
	}
	if cfg.Label.Width != placement.DefaultWidth {
		t.Errorf("missing default file should yield defaults, got %+v", cfg.Label)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[label]\nwidth = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want INVALID_CONFIG", err)
	}
	if !strings.Contains(errors.UserMessage(err), path) {
		t.Errorf("message should name the file: %q", errors.UserMessage(err))
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/tmp/xdg", appName, "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if expected := filepath.Join(home, ".cache", appName); dir != expected {
		t.Errorf("CacheDir() = %q, want %q", dir, expected)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	if dir, _ := CacheDir(); dir != filepath.Join("/tmp/cache", appName) {
		t.Errorf("CacheDir() with XDG_CACHE_HOME = %q", dir)
	}
}
