package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a run configuration from the given YAML file path.
// After parsing, it fills in defaults for fields the file leaves empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	cfg.Source = path
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadDefault searches for a config in standard locations and loads the first
// one found. Search order: <repoDir>/.repoboost.yaml, <home>/config.yaml.
// With no file present the built-in defaults are returned.
func LoadDefault(repoDir, home string) (*Config, error) {
	var candidates []string
	if repoDir != "" {
		candidates = append(candidates, filepath.Join(repoDir, FileName))
	}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// ResolveHome picks the state directory: explicit override, then the
// REPOBOOST_HOME environment variable, then the config's home, then
// ~/.repoboost. A leading ~/ is expanded.
func (c *Config) ResolveHome(override string) (string, error) {
	home := override
	if home == "" {
		home = os.Getenv(HomeEnv)
	}
	if home == "" {
		home = c.Home
	}
	if home == "" || strings.HasPrefix(home, "~/") {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if home == "" {
			return filepath.Join(userHome, ".repoboost"), nil
		}
		home = filepath.Join(userHome, home[2:])
	}
	return filepath.Abs(home)
}

// applyDefaults fills empty fields with the built-in defaults.
func applyDefaults(cfg *Config) {
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.Author == "" {
		cfg.Author = DefaultAuthor
	}
	if cfg.VerifyTimeout == "" {
		cfg.VerifyTimeout = DefaultVerifyTimeout.String()
	}
	if cfg.ApplyTimeout == "" {
		cfg.ApplyTimeout = DefaultApplyTimeout.String()
	}
	if len(cfg.Boosts) == 0 {
		cfg.Boosts = append([]string(nil), BuiltinBoosts...)
	}
}
