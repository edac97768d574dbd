// Package settings holds the per-user configuration that spans projects: the
// active platform environment and the local build cache root. Values are
// layered from defaults, an optional ~/.superai/settings.yaml, and SUPERAI_*
// environment variables. Builders receive a Settings value explicitly instead
// of reading process-wide state, so builds stay reproducible in tests.
package settings

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Settings struct {
	// Environment is the active platform environment ("prod", "sandbox", "dev", ...).
	// The "dev" environment selects internal base images.
	Environment string `mapstructure:"environment"`
	// CacheRoot is the root directory of the per-model-version build cache.
	CacheRoot string `mapstructure:"cache_root"`
}

// IsDevEnvironment reports whether the active environment is a development
// environment, which switches base image resolution to internal images.
func (s Settings) IsDevEnvironment() bool {
	return s.Environment == "dev"
}

// Dir returns the per-user superai configuration directory.
func Dir() (string, error) {
	return homedir.Expand("~/.superai")
}

// Load reads user settings from disk and the environment, returning defaults
// when no settings file exists.
func Load() (Settings, error) {
	dir, err := Dir()
	if err != nil {
		return Settings{}, fmt.Errorf("failed to resolve settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("SUPERAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "prod")
	v.SetDefault("cache_root", filepath.Join(dir, "cache"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A malformed settings file should not brick the CLI; fall back to
			// defaults the way a missing file does, but tell the user.
			log.Warnf("Failed to read settings from %s: %s", dir, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}
