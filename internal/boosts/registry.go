package boosts

import (
	"fmt"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/config"
)

// Describer is implemented by boosts that can explain themselves in
// `repoboost boosts`.
type Describer interface {
	Description() string
}

// DefaultOrder is the order built-in boosts run in when the config does not
// say otherwise. Later boosts build on what earlier ones committed.
var DefaultOrder = config.BuiltinBoosts

func builtin(name string, tb *Toolbox) (boost.Boost, bool) {
	switch name {
	case "gitignore":
		return &Gitignore{tb: tb}, true
	case "uv":
		return &UV{tb: tb}, true
	case "ruff":
		return &Ruff{tb: tb}, true
	case "mypy":
		return &Mypy{tb: tb}, true
	case "pre-commit":
		return &PreCommit{tb: tb}, true
	case "justfile":
		return &Justfile{tb: tb}, true
	}
	return nil, false
}

// Resolve turns boost names into boosts, in the order given. Names are
// looked up among the built-ins first, then the config's command boosts.
func Resolve(names []string, cfg *config.Config, tb *Toolbox) ([]boost.Boost, error) {
	out := make([]boost.Boost, 0, len(names))
	for _, name := range names {
		if b, ok := builtin(name, tb); ok {
			out = append(out, b)
			continue
		}
		if spec, ok := cfg.Command(name); ok {
			out = append(out, &Command{tb: tb, spec: spec})
			continue
		}
		return nil, fmt.Errorf("unknown boost %q", name)
	}
	return out, nil
}

// Available lists every boost the config can name: built-ins in default
// order, then command boosts in declaration order.
func Available(cfg *config.Config, tb *Toolbox) []boost.Boost {
	var out []boost.Boost
	for _, name := range DefaultOrder {
		b, _ := builtin(name, tb)
		out = append(out, b)
	}
	for _, spec := range cfg.Commands {
		out = append(out, &Command{tb: tb, spec: spec})
	}
	return out
}
