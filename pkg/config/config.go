// Package config loads pointlabel settings from a TOML file.
//
// A config file sets defaults that command-line flags override:
//
//	[label]
//	width = 6.0
//	height = 2.0
//	gap = 1.0
//
//	[index]
//	kind = "quadtree"
//
//	[cache]
//	disabled = false
//	dir = "/var/cache/pointlabel"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	mongo_uri = "mongodb://localhost:27017"
//	read_timeout = "10s"
//
// Keys absent from the file keep their defaults. Unknown keys are an error so
// that typos do not silently fall back to defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/pipeline"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// appName names the XDG subdirectory.
const appName = "pointlabel"

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultMongoDatabase   = "pointlabel"
	DefaultReadTimeout     = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxPoints       = 1_000_000
)

// Config is the root of the TOML file.
type Config struct {
	Label  LabelConfig  `toml:"label"`
	Index  IndexConfig  `toml:"index"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LabelConfig sets label size and candidate positions.
type LabelConfig struct {
	Width   float64            `toml:"width"`
	Height  float64            `toml:"height"`
	Gap     float64            `toml:"gap"`
	Offsets []placement.Offset `toml:"offsets,omitempty"`
}

// IndexConfig selects the overlap index.
type IndexConfig struct {
	Kind string `toml:"kind"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Disabled bool        `toml:"disabled"`
	Dir      string      `toml:"dir,omitempty"` // empty means the XDG cache dir
	Redis    RedisConfig `toml:"redis"`
}

// RedisConfig enables a shared Redis cache when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
	Prefix   string `toml:"prefix,omitempty"`
}

// ServerConfig configures "pointlabel serve".
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	MongoURI        string   `toml:"mongo_uri,omitempty"`
	RunsDir         string   `toml:"runs_dir,omitempty"` // used without mongo_uri; empty keeps runs in memory
	MongoDatabase   string   `toml:"mongo_database"`
	ReadTimeout     Duration `toml:"read_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxPoints       int      `toml:"max_points"`
}

// Duration is a time.Duration written as a string like "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Label: LabelConfig{
			Width:  placement.DefaultWidth,
			Height: placement.DefaultHeight,
			Gap:    placement.DefaultGap,
		},
		Index: IndexConfig{Kind: string(placement.DefaultIndex)},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			MongoDatabase:   DefaultMongoDatabase,
			ReadTimeout:     Duration{DefaultReadTimeout},
			ShutdownTimeout: Duration{DefaultShutdownTimeout},
			MaxPoints:       DefaultMaxPoints,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pointlabel/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/pointlabel/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the config at path. An empty path means DefaultPath, and a
// missing file at the default path yields Default without error. A missing
// file at an explicit path is a FILE_NOT_FOUND error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: %s", path, errors.UserMessage(err))
	}
	return cfg, nil
}

// Parse decodes TOML onto Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes cfg as TOML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks the settings that flags cannot fix later.
func (c Config) Validate() error {
	if _, err := c.PlacementConfig(); err != nil {
		return err
	}
	if c.Server.MaxPoints < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_points must not be negative, got %d", c.Server.MaxPoints)
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.ShutdownTimeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server timeouts must not be negative")
	}
	return nil
}

// PipelineOptions converts the label and index settings into pipeline
// options. Callers override fields from flags before running.
func (c Config) PipelineOptions() pipeline.Options {
	gap := c.Label.Gap
	return pipeline.Options{
		Width:   c.Label.Width,
		Height:  c.Label.Height,
		Gap:     &gap,
		Offsets: c.Label.Offsets,
		Index:   c.Index.Kind,
	}
}

// PlacementConfig resolves the placement config these settings describe.
func (c Config) PlacementConfig() (placement.Config, error) {
	// Zero would silently select the pipeline default.
	if !(c.Label.Width > 0) || !(c.Label.Height > 0) {
		return placement.Config{}, errors.New(errors.ErrCodeInvalidConfig,
			"label width and height must be positive, got %g×%g", c.Label.Width, c.Label.Height)
	}
	opts := c.PipelineOptions()
	return opts.ValidateForPlace()
}
