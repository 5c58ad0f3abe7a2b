package boosts

import (
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/verify"
)

const ruffFile = "ruff.toml"

type ruffConfig struct {
	LineLength int `toml:"line-length"`
	Lint       struct {
		Select []string `toml:"select"`
	} `toml:"lint"`
}

// Ruff adds ruff with every rule enabled, formats the code and suppresses
// the existing violations so the check starts green.
type Ruff struct {
	tb *Toolbox
}

func (r *Ruff) Name() string {
	return "ruff"
}

func (r *Ruff) Description() string {
	return "lint and format with ruff (all rules, existing violations suppressed)"
}

func (r *Ruff) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	return pythonToolPreconditions(r.tb, p, "ruff", "ruff.toml", ".ruff.toml")
}

func (r *Ruff) Apply(ctx context.Context, p boost.Project) error {
	if err := addDevPackage(ctx, r.tb, p.Root, "lint", "ruff"); err != nil {
		return err
	}

	cfg := ruffConfig{LineLength: 120}
	cfg.Lint.Select = []string{"ALL"}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ruffFile, err)
	}
	if err := writeFile(p.Root, ruffFile, string(data)); err != nil {
		return err
	}

	if err := r.tb.run(ctx, p.Root, "uv run ruff format ."); err != nil {
		return err
	}
	// Exits non-zero when violations remain that noqa cannot cover; the
	// verification reports those.
	out, exitCode, err := r.tb.exec(ctx, p.Root, "uv run ruff check --add-noqa .")
	if err != nil {
		return err
	}
	if exitCode != 0 {
		r.tb.logger().Warn("ruff --add-noqa exited non-zero", "exit_code", exitCode, "output", verify.CombineOutput(out, ""))
	}
	return nil
}

func (r *Ruff) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: "ruff check", Command: "uv run ruff check ."}
}

func (r *Ruff) CommitMessage(p boost.Project) string {
	return "Add ruff linting and formatting"
}

// pythonToolPreconditions is shared by the boosts that add a dev tool
// through uv: they need uv and a pyproject.toml, and stand down when the
// tool is configured in pyproject or one of its own config files.
func pythonToolPreconditions(tb *Toolbox, p boost.Project, tool string, configFiles ...string) (boost.Precondition, error) {
	if !tb.has("uv") {
		return boost.NotApplicable("uv is not installed"), nil
	}
	py, err := readPyproject(p.Root)
	if err != nil {
		return boost.Precondition{}, err
	}
	if py == nil {
		return boost.NotApplicable("no pyproject.toml"), nil
	}
	if py.hasTool(tool) {
		return boost.NotApplicable(fmt.Sprintf("[tool.%s] already present in pyproject.toml", tool)), nil
	}
	if name, ok := anyExists(p.Root, configFiles...); ok {
		return boost.NotApplicable(fmt.Sprintf("%s already exists", name)), nil
	}
	return boost.Ready(), nil
}

func toolConfigured(root string, py *pyproject, tool string, configFiles ...string) bool {
	if py.hasTool(tool) {
		return true
	}
	_, ok := anyExists(root, configFiles...)
	return ok
}
