package boosts

import (
	"context"
	"path/filepath"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/render"
	"github.com/lucasnoah/repoboost/internal/verify"
)

const minPython = "3.9"

// UV moves the project onto uv-managed dependencies and a lockfile.
type UV struct {
	tb *Toolbox
}

func (u *UV) Name() string {
	return "uv"
}

func (u *UV) Description() string {
	return "manage dependencies with uv and commit uv.lock"
}

func (u *UV) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	if !u.tb.has("uv") {
		return boost.NotApplicable("uv is not installed"), nil
	}
	if fileExists(p.Root, "uv.lock") {
		return boost.NotApplicable("uv.lock already exists"), nil
	}
	return boost.Ready(), nil
}

func (u *UV) Apply(ctx context.Context, p boost.Project) error {
	migrate, err := hasMigrationSource(p.Root)
	if err != nil {
		return err
	}
	if migrate {
		u.tb.logger().Info("migrating existing dependency metadata", "tool", "migrate-to-uv")
		if err := u.tb.run(ctx, p.Root, "uvx migrate-to-uv"); err != nil {
			return err
		}
	}

	if !fileExists(p.Root, pyprojectFile) {
		u.tb.logger().Info("no pyproject.toml, writing a minimal one")
		content, err := render.LoadAndRender(pyprojectFile, u.tb.TemplatesDir, render.Vars{
			"name":   projectName(p.Root),
			"python": minPython,
		})
		if err != nil {
			return err
		}
		if err := writeFile(p.Root, pyprojectFile, content); err != nil {
			return err
		}
	}

	return u.tb.run(ctx, p.Root, "uv lock")
}

func (u *UV) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: "uv lock --check", Command: "uv lock --check"}
}

func (u *UV) CommitMessage(p boost.Project) string {
	return "Manage dependencies with uv"
}

// hasMigrationSource reports whether the project declares dependencies in a
// format migrate-to-uv understands.
func hasMigrationSource(root string) (bool, error) {
	if _, ok := anyExists(root, "poetry.lock", "Pipfile", "Pipfile.lock"); ok {
		return true, nil
	}
	for _, pattern := range []string{"requirements*.txt", "*-requirements.txt"} {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return false, err
		}
		if len(matches) > 0 {
			return true, nil
		}
	}
	py, err := readPyproject(root)
	if err != nil {
		return false, err
	}
	return py.hasTool("poetry"), nil
}
