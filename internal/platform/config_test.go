package platform

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(DataDir(root), 0755))
	require.NoError(t, os.WriteFile(DataDir(root)+string(os.PathSeparator)+ConfigFile, []byte(body), 0644))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	root := t.TempDir()
	writeConfig(t, root, `
backend: sqlite
key: local:work
debounce: 120ms
log:
  level: debug
ui:
  preview: true
`)

	cfg, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "local:work", cfg.Key)
	assert.Equal(t, 120*time.Millisecond, cfg.Debounce)
	assert.True(t, cfg.UI.Preview)
	assert.Equal(t, 32, cfg.UI.ListWidth, "unset fields keep their defaults")

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	assert.Len(t, cfg.Options(), 3)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "log:\n  level: debug\n")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadConfig(root)
	require.NoError(t, err)
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  string
	}{
		{name: "Bad YAML", body: "backend: [fs"},
		{name: "Bad Duration", body: "debounce: soon"},
		{name: "Bad Level", body: "log:\n  level: loud\n"},
		{name: "Bad Env Level", body: "", env: "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeConfig(t, root, tt.body)
			t.Setenv(EnvLogLevel, tt.env)

			_, err := LoadConfig(root)
			assert.Error(t, err)
		})
	}
}

func TestOpenLogFile(t *testing.T) {
	root := t.TempDir()
	day := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	f, err := OpenLogFile(root, day)
	require.NoError(t, err)
	logger := NewLogger(f, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("store opened", "adapter", "fs")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(DataDir(root) + "/logs/tabnotes-2026-03-04.log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "store opened")
	assert.Contains(t, string(data), "adapter=fs")
	assert.NotContains(t, string(data), "hidden")
}
