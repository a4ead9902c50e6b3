package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillreader/quill/pkg/quill/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"nil map", nil},
		{"empty map", map[string]any{}},
		{"with values", map[string]any{"key": "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.NotNil(t, cfg.Raw())
		})
	}
}

func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":    "quill",
		"workers": 8,
		"rate":    1.5,
		"enabled": true,
		"timeout": "250ms",
		"seconds": 3,
	})

	assert.Equal(t, "quill", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("missing", "x"))
	assert.Equal(t, "x", cfg.String("workers", "x"), "wrong type falls back")

	assert.Equal(t, 8, cfg.Int("workers", 1))
	assert.Equal(t, 1, cfg.Int("name", 1))

	assert.Equal(t, 1.5, cfg.Float("rate", 0))
	assert.Equal(t, 8.0, cfg.Float("workers", 0))

	assert.True(t, cfg.Bool("enabled", false))
	assert.False(t, cfg.Bool("missing", false))

	assert.Equal(t, 250*time.Millisecond, cfg.Duration("timeout", time.Second))
	assert.Equal(t, 3*time.Second, cfg.Duration("seconds", time.Second))
	assert.Equal(t, time.Second, cfg.Duration("missing", time.Second))

	assert.True(t, cfg.Has("name"))
	assert.False(t, cfg.Has("nope"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte("speech_rate: 200\ninterrupt_on_focus: false\n"))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Int("speech_rate", 0))
	assert.False(t, cfg.Bool("interrupt_on_focus", true))
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := config.FromYAML([]byte("::not yaml"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"journal_path": ":memory:"}`))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.String("journal_path", ""))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "quill.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("pipeline_workers: 2\n"), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Int("pipeline_workers", 0))

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	tomlPath := filepath.Join(dir, "quill.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("a = 1"), 0o644))
	_, err = config.FromFile(tomlPath)
	assert.Error(t, err, "unsupported extension")
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.yml")
	require.NoError(t, os.WriteFile(path, []byte("speech_rate: 240\n"), 0o644))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 240, s.SpeechRate)
	assert.Equal(t, config.DefaultSettings.PipelineWorkers, s.PipelineWorkers)

	_, err = config.LoadSettings(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestSettingsFromDefaults(t *testing.T) {
	s := config.SettingsFrom(config.New(nil))
	assert.Equal(t, config.DefaultSettings, s)
}

func TestSettingsFromOverrides(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
pipeline_workers: 2
max_command_depth: 4
fetch_timeout: 500ms
speech_rate: 240
history_size: 32
journal_path: /tmp/quill.db
`))
	require.NoError(t, err)

	s := config.SettingsFrom(cfg)
	assert.Equal(t, 2, s.PipelineWorkers)
	assert.Equal(t, 4, s.MaxCommandDepth)
	assert.Equal(t, 500*time.Millisecond, s.FetchTimeout)
	assert.Equal(t, 240, s.SpeechRate)
	assert.Equal(t, 32, s.HistorySize)
	assert.Equal(t, "/tmp/quill.db", s.JournalPath)

	// Untouched fields keep their defaults.
	assert.Equal(t, config.DefaultSettings.EventQueueSize, s.EventQueueSize)
	assert.Equal(t, config.DefaultSettings.InterruptOnFocus, s.InterruptOnFocus)
}
