package boosts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const pyprojectFile = "pyproject.toml"

// pyproject is the part of pyproject.toml the boosts read. It is never
// written back; edits go through uv so formatting and comments survive.
type pyproject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
	Tool             map[string]any   `toml:"tool"`
}

// readPyproject parses <root>/pyproject.toml. A missing file returns nil
// and no error.
func readPyproject(root string) (*pyproject, error) {
	data, err := os.ReadFile(filepath.Join(root, pyprojectFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pyprojectFile, err)
	}
	var p pyproject
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pyprojectFile, err)
	}
	return &p, nil
}

func (p *pyproject) hasTool(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Tool[name]
	return ok
}

// hasPackage reports whether pkg is already listed in a dependency group or
// an optional-dependencies extra.
func (p *pyproject) hasPackage(pkg string) bool {
	if p == nil {
		return false
	}
	want := normalizePackage(pkg)
	for _, deps := range p.DependencyGroups {
		for _, dep := range deps {
			if s, ok := dep.(string); ok && requirementName(s) == want {
				return true
			}
		}
	}
	for _, deps := range p.Project.OptionalDependencies {
		for _, dep := range deps {
			if requirementName(dep) == want {
				return true
			}
		}
	}
	return false
}

var requirementNameRe = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)`)

// requirementName extracts the normalized distribution name from a PEP 508
// requirement string.
func requirementName(req string) string {
	m := requirementNameRe.FindStringSubmatch(req)
	if m == nil {
		return ""
	}
	return normalizePackage(m[1])
}

func normalizePackage(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}

// addDevPackage adds pkg to a dependency group with uv unless it is
// already declared.
func addDevPackage(ctx context.Context, tb *Toolbox, root string, group string, pkg string) error {
	p, err := readPyproject(root)
	if err != nil {
		return err
	}
	if p.hasPackage(pkg) {
		tb.logger().Info("package already declared, not adding", "package", pkg)
		return nil
	}
	return tb.run(ctx, root, fmt.Sprintf("uv add --no-install-project --group %s %s", group, pkg))
}

var projectNameRe = regexp.MustCompile(`[^a-z0-9.-]+`)

// projectName derives a valid distribution name from a directory name.
func projectName(root string) string {
	name := strings.ToLower(filepath.Base(root))
	name = strings.NewReplacer(" ", "-", "_", "-").Replace(name)
	name = projectNameRe.ReplaceAllString(name, "")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "project"
	}
	return name
}
