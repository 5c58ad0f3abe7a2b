package config

import "time"

// Defaults applied when the config leaves a field empty.
const (
	DefaultBranch        = "feat/repoboost"
	DefaultAuthor        = "repoboost <repoboost@localhost>"
	DefaultVerifyTimeout = 5 * time.Minute
	DefaultApplyTimeout  = 10 * time.Minute
	FileName             = ".repoboost.yaml"
	HomeEnv              = "REPOBOOST_HOME"
)

// BuiltinBoosts lists the built-in boosts in their default run order.
var BuiltinBoosts = []string{"gitignore", "uv", "ruff", "mypy", "pre-commit", "justfile"}

// Config is the run configuration parsed from YAML.
type Config struct {
	Home          string         `yaml:"home,omitempty"`
	Branch        string         `yaml:"branch"`
	Author        string         `yaml:"author"`
	VerifyTimeout string         `yaml:"verify_timeout"`
	ApplyTimeout  string         `yaml:"apply_timeout"`
	Boosts        []string       `yaml:"boosts"`
	TemplatesDir  string         `yaml:"templates_dir,omitempty"`
	Commands      []CommandBoost `yaml:"commands,omitempty"`

	// Source is the file the config was loaded from; empty for defaults.
	Source string `yaml:"-"`
}

// CommandBoost declares a boost made of plain shell commands.
type CommandBoost struct {
	Name         string   `yaml:"name"`
	Requires     []string `yaml:"requires,omitempty"`
	SkipIfExists string   `yaml:"skip_if_exists,omitempty"`
	Apply        string   `yaml:"apply"`
	Verify       string   `yaml:"verify"`
	Message      string   `yaml:"message,omitempty"`
	Timeout      string   `yaml:"timeout,omitempty"`
}

// VerifyTimeoutDuration returns the parsed verify_timeout, or the default
// when it is empty or invalid.
func (c *Config) VerifyTimeoutDuration() time.Duration {
	return parseOr(c.VerifyTimeout, DefaultVerifyTimeout)
}

// ApplyTimeoutDuration returns the parsed apply_timeout, or the default.
func (c *Config) ApplyTimeoutDuration() time.Duration {
	return parseOr(c.ApplyTimeout, DefaultApplyTimeout)
}

// Command returns the declared command boost with the given name.
func (c *Config) Command(name string) (CommandBoost, bool) {
	for _, cb := range c.Commands {
		if cb.Name == name {
			return cb, true
		}
	}
	return CommandBoost{}, false
}

// TimeoutDuration returns the command's verification timeout; zero means
// the runner default.
func (cb CommandBoost) TimeoutDuration() time.Duration {
	return parseOr(cb.Timeout, 0)
}

func parseOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
