package config

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"

	"github.com/mysuperai/superai/pkg/global"
	"github.com/mysuperai/superai/pkg/util/files"
)

// GetConfig loads and validates superai.yaml from projectDir, defaulting to
// the current working directory.
func GetConfig(projectDir string) (*Config, string, error) {
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		projectDir = cwd
	}

	configPath := filepath.Join(projectDir, global.ConfigFilename)
	exists, err := files.Exists(configPath)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, "", fmt.Errorf("%s does not exist in %s. Are you in the right directory?", global.ConfigFilename, projectDir)
	}

	contents, err := os.ReadFile(configPath)
	if err != nil {
		return nil, "", err
	}
	config, err := FromYAML(contents)
	if err != nil {
		return nil, "", err
	}
	if err := config.ValidateAndComplete(); err != nil {
		return nil, "", err
	}
	return config, projectDir, nil
}

// FromYAML parses a Config from YAML contents.
func FromYAML(contents []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(contents, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", global.ConfigFilename, err)
	}
	return &config, nil
}
