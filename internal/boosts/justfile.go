package boosts

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/render"
	"github.com/lucasnoah/repoboost/internal/verify"
)

// Justfile writes a justfile with recipes for whichever tools the project
// has by the time it runs.
type Justfile struct {
	tb *Toolbox
}

func (j *Justfile) Name() string {
	return "justfile"
}

func (j *Justfile) Description() string {
	return "add a justfile with install, lint, typecheck and check recipes"
}

func (j *Justfile) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	if !j.tb.has("just") {
		return boost.NotApplicable("just is not installed"), nil
	}
	if name, ok := anyExists(p.Root, "justfile", "Justfile", ".justfile"); ok {
		return boost.NotApplicable(name + " already exists"), nil
	}
	return boost.Ready(), nil
}

func (j *Justfile) Apply(ctx context.Context, p boost.Project) error {
	py, err := readPyproject(p.Root)
	if err != nil {
		return err
	}

	vars := render.Vars{"project": filepath.Base(p.Root)}
	var check []string
	if fileExists(p.Root, "uv.lock") {
		vars["uv"] = "1"
	}
	if toolConfigured(p.Root, py, "ruff", "ruff.toml", ".ruff.toml") {
		vars["ruff"] = "1"
		check = append(check, "lint")
	}
	if toolConfigured(p.Root, py, "mypy", "mypy.ini", ".mypy.ini") {
		vars["mypy"] = "1"
		check = append(check, "typecheck")
	}
	if fileExists(p.Root, preCommitFile) {
		vars["pre_commit"] = "1"
	}
	if len(check) > 0 {
		vars["check"] = " " + strings.Join(check, " ")
	}

	content, err := render.LoadAndRender("justfile", j.tb.TemplatesDir, vars)
	if err != nil {
		return err
	}
	return writeFile(p.Root, "justfile", content)
}

func (j *Justfile) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: "just --summary", Command: "just --summary"}
}

func (j *Justfile) CommitMessage(p boost.Project) string {
	return "Add justfile with common tasks"
}
