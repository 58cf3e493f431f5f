package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/plume/internal/config"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "notes.fnx", s.File)
	assert.Equal(t, 5, s.AutosaveMinutes)
	assert.Equal(t, core.DefaultTextFont, s.TextFont)
	assert.Equal(t, core.DefaultNodeFont, s.NodeFont)
	assert.Equal(t, crypto.DefaultIterations, s.KDFIterations)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.False(t, s.Remember)
	assert.Empty(t, s.Source)
}

func TestLoad_FileAndEnv(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "plume")
	require.NoError(t, os.MkdirAll(dir, 0755))
	yaml := "autosave_minutes: 0\ntext_font: \"Serif,12,italic\"\nlog_level: debug\nremember: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))
	t.Setenv("PLUME_KDF_ITERATIONS", "5000")

	s, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, s.AutosaveMinutes)
	assert.Equal(t, core.Font{Family: "Serif", Size: 12, Italic: true}, s.TextFont)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
	assert.True(t, s.Remember)
	assert.Equal(t, 5000, s.KDFIterations)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), s.Source)
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")

	_, err := config.Load(path)
	assert.Error(t, err, "a missing explicit config file must fail")

	require.NoError(t, os.WriteFile(path, []byte("file: journal.fnx\n"), 0600))
	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "journal.fnx", s.File)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"negative autosave", "PLUME_AUTOSAVE_MINUTES", "-1"},
		{"weak kdf", "PLUME_KDF_ITERATIONS", "10"},
		{"bad font", "PLUME_NODE_FONT", "Sans"},
		{"bad level", "PLUME_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			t.Setenv(tt.env, tt.val)
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}
