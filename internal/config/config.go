// Package config loads quorum's two configuration layers: per-project
// settings from quorum.yml next to the manifest, and per-user provider
// settings from the OS config directory. Flags override both; the merged
// result is assembled into an immutable engine.Config by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/quorum/internal/engine"
)

// ProjectConfig holds project-level settings loaded from quorum.yml.
type ProjectConfig struct {
	Manifest    string   `yaml:"manifest,omitempty"`
	SkipSync    bool     `yaml:"skipSync,omitempty"`
	SyncCommand []string `yaml:"syncCommand,omitempty"`
	Verbose     bool     `yaml:"verbose,omitempty"`

	// Roster overrides the built-in specialist roster when present.
	Roster []engine.SpecialistDescriptor `yaml:"roster,omitempty"`
}

// Load attempts to read quorum.yml or quorum.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"quorum.yml", "quorum.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// UserConfig holds per-user provider settings from the config directory.
type UserConfig struct {
	// Provider selects the completion backend: "local" (default) or "http".
	Provider string `yaml:"provider,omitempty"`

	// Endpoint is the completion endpoint URL for the http provider.
	Endpoint string `yaml:"endpoint,omitempty"`

	// TimeoutSeconds bounds each specialist call. Zero means the default.
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty"`

	// JudgeRetries overrides the retry ceiling for failed judge calls.
	JudgeRetries int `yaml:"judgeRetries,omitempty"`
}

// LoadUser reads config.yml from the user's quorum config directory
// (e.g. ~/.config/quorum on Linux). A missing file yields defaults.
func LoadUser() (*UserConfig, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return &UserConfig{}, nil
	}
	return loadUserFrom(filepath.Join(base, "quorum"))
}

func loadUserFrom(dir string) (*UserConfig, error) {
	for _, name := range []string{"config.yml", "config.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg UserConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &UserConfig{}, nil
}
