package boosts

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/verify"
)

const preCommitFile = ".pre-commit-config.yaml"

type preCommitConfig struct {
	Repos []preCommitRepo `yaml:"repos"`
}

type preCommitRepo struct {
	Repo  string          `yaml:"repo"`
	Hooks []preCommitHook `yaml:"hooks"`
}

type preCommitHook struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Entry         string   `yaml:"entry"`
	Language      string   `yaml:"language"`
	Types         []string `yaml:"types,omitempty"`
	PassFilenames *bool    `yaml:"pass_filenames,omitempty"`
}

// PreCommit wires the configured linters into git hooks. The hooks run the
// project's own tool versions through uv.
type PreCommit struct {
	tb *Toolbox
}

func (pc *PreCommit) Name() string {
	return "pre-commit"
}

func (pc *PreCommit) Description() string {
	return "run ruff and mypy from pre-commit hooks"
}

func (pc *PreCommit) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	if fileExists(p.Root, preCommitFile) {
		return boost.NotApplicable(preCommitFile + " already exists"), nil
	}
	if !pc.tb.has("uv") {
		return boost.NotApplicable("uv is not installed"), nil
	}
	py, err := readPyproject(p.Root)
	if err != nil {
		return boost.Precondition{}, err
	}
	if py == nil {
		return boost.NotApplicable("no pyproject.toml"), nil
	}
	if len(preCommitHooks(p.Root, py)) == 0 {
		return boost.NotApplicable("neither ruff nor mypy is configured"), nil
	}
	return boost.Ready(), nil
}

func (pc *PreCommit) Apply(ctx context.Context, p boost.Project) error {
	py, err := readPyproject(p.Root)
	if err != nil {
		return err
	}
	hooks := preCommitHooks(p.Root, py)
	if len(hooks) == 0 {
		return fmt.Errorf("no hooks to configure")
	}
	if err := addDevPackage(ctx, pc.tb, p.Root, "lint", "pre-commit"); err != nil {
		return err
	}

	data, err := yaml.Marshal(preCommitConfig{
		Repos: []preCommitRepo{{Repo: "local", Hooks: hooks}},
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", preCommitFile, err)
	}
	return writeFile(p.Root, preCommitFile, string(data))
}

func (pc *PreCommit) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: "pre-commit validate-config", Command: "uv run pre-commit validate-config"}
}

func (pc *PreCommit) CommitMessage(p boost.Project) string {
	return "Add pre-commit hooks"
}

func preCommitHooks(root string, py *pyproject) []preCommitHook {
	var hooks []preCommitHook
	if toolConfigured(root, py, "ruff", "ruff.toml", ".ruff.toml") {
		hooks = append(hooks,
			preCommitHook{ID: "ruff-format", Name: "ruff format", Entry: "uv run ruff format", Language: "system", Types: []string{"python"}},
			preCommitHook{ID: "ruff-check", Name: "ruff check", Entry: "uv run ruff check --fix", Language: "system", Types: []string{"python"}},
		)
	}
	if toolConfigured(root, py, "mypy", "mypy.ini", ".mypy.ini") {
		noFiles := false
		hooks = append(hooks, preCommitHook{
			ID: "mypy", Name: "mypy", Entry: "uv run mypy .", Language: "system",
			Types: []string{"python"}, PassFilenames: &noFiles,
		})
	}
	return hooks
}
