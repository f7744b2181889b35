package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
interval: 3s
include_system: true
hotplug:
  enabled: false
  paths: [/dev/disk/by-path]
  settle: 1s
journal:
  path: /tmp/drivescan.db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.True(t, cfg.IncludeSystem)
	assert.False(t, cfg.Hotplug.Enabled)
	assert.Equal(t, []string{"/dev/disk/by-path"}, cfg.Hotplug.Paths)
	assert.Equal(t, time.Second, cfg.Hotplug.Settle)
	assert.Equal(t, "/tmp/drivescan.db", cfg.Journal.Path)
	assert.Equal(t, "json", cfg.Log.Format)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "include_system: true\n"))
	require.NoError(t, err)

	assert.True(t, cfg.IncludeSystem)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.True(t, cfg.Hotplug.Enabled)
	assert.Equal(t, []string{"/dev/disk/by-id"}, cfg.Hotplug.Paths)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Journal.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero interval", "interval: 0s\n"},
		{"negative settle", "hotplug:\n  settle: -1s\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "interval: [\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault_IsCopy(t *testing.T) {
	cfg := Default()
	cfg.Hotplug.Paths[0] = "/changed"
	assert.Equal(t, "/dev/disk/by-id", Default().Hotplug.Paths[0])
}
