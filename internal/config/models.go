package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelSettings configures one generation platform.
type ModelSettings struct {
	Model   string `yaml:"model"`
	Enabled bool   `yaml:"enabled"`
}

// ModelsConfig maps platform tags to their generation model settings.
type ModelsConfig struct {
	Platforms map[string]*ModelSettings `yaml:"platforms"`
}

// LoadModelsConfig loads the models configuration from config/models.yaml.
func LoadModelsConfig() (*ModelsConfig, error) {
	return LoadModelsConfigFromPath(filepath.Join("config", "models.yaml"))
}

// LoadModelsConfigFromPath loads the models configuration from a specific path.
func LoadModelsConfigFromPath(path string) (*ModelsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models config: %w", err)
	}

	var cfg ModelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse models config: %w", err)
	}

	for tag, settings := range cfg.Platforms {
		if settings.Enabled && settings.Model == "" {
			return nil, fmt.Errorf("platform %s: model is required", tag)
		}
	}

	return &cfg, nil
}

// LoadModelsConfigOrDefault loads the models config or returns the default
// when the file is absent.
func LoadModelsConfigOrDefault() *ModelsConfig {
	cfg, err := LoadModelsConfig()
	if err != nil {
		return DefaultModelsConfig()
	}
	return cfg
}

// DefaultModelsConfig returns the built-in platform defaults.
func DefaultModelsConfig() *ModelsConfig {
	return &ModelsConfig{
		Platforms: map[string]*ModelSettings{
			"gemini": {
				Model:   "gemini-2.0-flash",
				Enabled: true,
			},
			"openai": {
				Model:   "gpt-4o-mini",
				Enabled: false,
			},
		},
	}
}

// ModelFor returns the configured model name for a platform tag, or empty if
// the platform is unknown or disabled.
func (c *ModelsConfig) ModelFor(tag string) string {
	if c == nil {
		return ""
	}
	settings, ok := c.Platforms[tag]
	if !ok || !settings.Enabled {
		return ""
	}
	return settings.Model
}
