// Package config loads the protodetect.yaml configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/saeedalam/protodetect/internal/profile"
)

// FileName is the configuration file looked up in the working directory
const FileName = "protodetect.yaml"

// Config holds the settings shared by all commands
type Config struct {
	Workers      int    `yaml:"workers" validate:"min=1,max=256"`
	CacheDir     string `yaml:"cache_dir" validate:"required"`
	CacheEnabled bool   `yaml:"cache_enabled"`
	LogLevel     string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Custom profiles, inline or in separate files. Relative file paths are
	// resolved against the directory of the configuration file.
	Profiles     []*profile.Profile `yaml:"profiles,omitempty"`
	ProfileFiles []string           `yaml:"profile_files,omitempty" validate:"dive,required"`

	dir string
}

var validate = validator.New()

// Default returns the configuration used when no file exists
func Default() *Config {
	workers := runtime.NumCPU()
	if workers > 256 {
		workers = 256
	}
	return &Config{
		Workers:      workers,
		CacheDir:     ".protodetect",
		CacheEnabled: true,
		LogLevel:     "info",
	}
}

// Load reads a configuration from YAML. Settings missing from the input keep
// their default values.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the configuration file at path
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Find loads the file at path, or protodetect.yaml from the working
// directory when path is empty. Without either it returns the defaults. The
// second result is the file that was read, empty for defaults.
func Find(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := LoadFile(path)
		return cfg, path, err
	}

	if _, err := os.Stat(FileName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), "", nil
		}
		return nil, "", err
	}
	cfg, err := LoadFile(FileName)
	return cfg, FileName, err
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Registry builds the profile registry: the built-ins plus every custom
// profile, where later definitions replace earlier ones of the same name.
func (c *Config) Registry() (*profile.Registry, error) {
	if len(c.Profiles) == 0 && len(c.ProfileFiles) == 0 {
		return profile.Default(), nil
	}

	custom := append([]*profile.Profile(nil), c.Profiles...)
	for _, path := range c.ProfileFiles {
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		loaded, err := profile.LoadFile(path)
		if err != nil {
			return nil, err
		}
		custom = append(custom, loaded...)
	}

	r, err := profile.NewRegistry(custom...)
	if err != nil {
		return nil, fmt.Errorf("custom profiles: %w", err)
	}
	return r, nil
}

// Level converts LogLevel for slog
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
