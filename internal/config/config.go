// Package config loads user settings for the plume CLI from a YAML file and
// PLUME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
)

// EnvPrefix is prepended to every environment override, e.g. PLUME_TEXT_FONT.
const EnvPrefix = "PLUME"

// MinKDFIterations is the lowest key derivation cost accepted from config.
const MinKDFIterations = 1000

// Settings is the resolved configuration.
type Settings struct {
	File            string // default document when --file is not given
	AutosaveMinutes int    // zero disables autosave
	TextFont        core.Font
	NodeFont        core.Font
	KDFIterations   int
	LogLevel        slog.Level
	Remember        bool // cache passwords in the OS keyring

	// Source is the config file that was read, empty when none was found.
	Source string
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "plume"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "plume"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("file", "notes.fnx")
	v.SetDefault("autosave_minutes", 5)
	v.SetDefault("text_font", core.DefaultTextFont.String())
	v.SetDefault("node_font", core.DefaultNodeFont.String())
	v.SetDefault("kdf_iterations", crypto.DefaultIterations)
	v.SetDefault("log_level", "info")
	v.SetDefault("remember", false)
}

// Load reads cfgFile, or config.yaml under Dir when cfgFile is empty.
// A missing default file is not an error; a missing explicit one is.
func Load(cfgFile string) (Settings, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return Settings{}, err
		}
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (Settings, error) {
	s := Settings{
		File:            v.GetString("file"),
		AutosaveMinutes: v.GetInt("autosave_minutes"),
		KDFIterations:   v.GetInt("kdf_iterations"),
		Remember:        v.GetBool("remember"),
		Source:          v.ConfigFileUsed(),
	}
	if s.AutosaveMinutes < 0 {
		return Settings{}, fmt.Errorf("autosave_minutes must not be negative, got %d", s.AutosaveMinutes)
	}
	if s.KDFIterations < MinKDFIterations || s.KDFIterations > crypto.MaxIterations {
		return Settings{}, fmt.Errorf("kdf_iterations must be between %d and %d, got %d", MinKDFIterations, crypto.MaxIterations, s.KDFIterations)
	}

	var err error
	if s.TextFont, err = core.ParseFont(v.GetString("text_font")); err != nil {
		return Settings{}, fmt.Errorf("text_font: %w", err)
	}
	if s.NodeFont, err = core.ParseFont(v.GetString("node_font")); err != nil {
		return Settings{}, fmt.Errorf("node_font: %w", err)
	}
	if err := s.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Settings{}, fmt.Errorf("log_level: %w", err)
	}
	return s, nil
}
