package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, ".protodetect", cfg.CacheDir)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader("workers: 3\nlog_level: DEBUG\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, ".protodetect", cfg.CacheDir)
	assert.True(t, cfg.CacheEnabled)
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"too many workers", "workers: 1000\n", "Workers"},
		{"zero workers", "workers: 0\n", "Workers"},
		{"empty cache dir", "cache_dir: \"\"\n", "CacheDir"},
		{"unknown level", "log_level: trace\n", "LogLevel"},
		{"unknown field", "worker: 2\n", "worker"},
		{"bad yaml", "workers: [\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := Default()
		cfg.LogLevel = level
		assert.Equal(t, want, cfg.Level(), level)
	}
}

func TestRegistryWithoutCustomProfiles(t *testing.T) {
	r, err := Default().Registry()
	require.NoError(t, err)
	_, err = r.Lookup("java")
	assert.NoError(t, err)
}

func TestRegistryWithCustomProfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "groovy.yaml"), []byte(`
name: groovy
extensions: [.groovy]
string_delimiters: ['"', "'"]
line_comments: ["//"]
terminators: [";"]
`), 0644))

	cfgPath := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
workers: 2
profile_files: [groovy.yaml]
profiles:
  - name: scala
    extensions: [.scala]
    string_delimiters: ['"']
    parameter_style: pascal
`), 0644))

	cfg, err := LoadFile(cfgPath)
	require.NoError(t, err)

	r, err := cfg.Registry()
	require.NoError(t, err)

	p, err := r.ForFile("Main.groovy")
	require.NoError(t, err)
	assert.Equal(t, "groovy", p.Name)

	p, err = r.Lookup("scala")
	require.NoError(t, err)
	assert.Equal(t, "pascal", string(p.ParameterStyle))

	_, err = r.Lookup("java")
	assert.NoError(t, err, "built-ins stay available")
}

func TestRegistryMissingProfileFile(t *testing.T) {
	cfg := Default()
	cfg.ProfileFiles = []string{filepath.Join(t.TempDir(), "absent.yaml")}
	_, err := cfg.Registry()
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, used, err := Find("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Default().CacheDir, cfg.CacheDir)

	require.NoError(t, os.WriteFile(FileName, []byte("cache_dir: build/cache\n"), 0644))
	cfg, used, err = Find("")
	require.NoError(t, err)
	assert.Equal(t, FileName, used)
	assert.Equal(t, "build/cache", cfg.CacheDir)

	_, _, err = Find("missing.yaml")
	assert.Error(t, err)
}
