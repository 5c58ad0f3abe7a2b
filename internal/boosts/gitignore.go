package boosts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/render"
	"github.com/lucasnoah/repoboost/internal/verify"
)

const (
	gitignoreFile       = ".gitignore"
	gitignoreBlockStart = "# >>> repoboost >>>"
	gitignoreBlockEnd   = "# <<< repoboost <<<"
)

// Gitignore maintains a marked block of Python ignore patterns in .gitignore.
// Lines outside the block are never touched.
type Gitignore struct {
	tb *Toolbox
}

func (g *Gitignore) Name() string {
	return "gitignore"
}

func (g *Gitignore) Description() string {
	return "ignore Python build artifacts, caches and virtualenvs"
}

func (g *Gitignore) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	content, err := readOptional(filepath.Join(p.Root, gitignoreFile))
	if err != nil {
		return boost.Precondition{}, err
	}
	if strings.Contains(content, gitignoreBlockStart) && strings.Contains(content, gitignoreBlockEnd) {
		return boost.NotApplicable("managed block already present in .gitignore"), nil
	}
	return boost.Ready(), nil
}

func (g *Gitignore) Apply(ctx context.Context, p boost.Project) error {
	patterns, err := render.Load("gitignore", g.tb.TemplatesDir)
	if err != nil {
		return err
	}
	path := filepath.Join(p.Root, gitignoreFile)
	content, err := readOptional(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(replaceBlock(content, patterns)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", gitignoreFile, err)
	}
	return nil
}

func (g *Gitignore) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: "git check-ignore", Command: "git check-ignore -q __pycache__/probe.pyc"}
}

func (g *Gitignore) CommitMessage(p boost.Project) string {
	return "Ignore Python build artifacts and caches"
}

// replaceBlock swaps the managed block in content for one holding body,
// appending it when there is none. A start marker without an end marker
// owns the rest of the file.
func replaceBlock(content string, body string) string {
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	block := gitignoreBlockStart + "\n" + body + gitignoreBlockEnd + "\n"

	start := strings.Index(content, gitignoreBlockStart)
	if start == -1 {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if content != "" {
			content += "\n"
		}
		return content + block
	}

	rest := content[start:]
	end := strings.Index(rest, gitignoreBlockEnd)
	if end == -1 {
		return content[:start] + block
	}
	after := rest[end+len(gitignoreBlockEnd):]
	after = strings.TrimPrefix(after, "\n")
	return content[:start] + block + after
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}
