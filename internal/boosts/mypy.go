package boosts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasnoah/repoboost/internal/boost"
	"github.com/lucasnoah/repoboost/internal/verify"
)

const (
	mypyFile          = "mypy.ini"
	mypyConfig        = "[mypy]\nstrict = True\n"
	maxMypyIterations = 3
)

var (
	mypyErrorRe  = regexp.MustCompile(`^(.+?):(\d+):\s+error:.*?\[([^\]]+)\]\s*$`)
	typeIgnoreRe = regexp.MustCompile(`#\s*type:\s*ignore(?:\[([^\]]*)\])?`)
)

// Mypy enables strict type checking and pins today's errors behind
// per-line type: ignore comments.
type Mypy struct {
	tb *Toolbox
}

func (m *Mypy) Name() string {
	return "mypy"
}

func (m *Mypy) Description() string {
	return "strict type checking with mypy (existing errors suppressed)"
}

func (m *Mypy) CheckPreconditions(ctx context.Context, p boost.Project) (boost.Precondition, error) {
	return pythonToolPreconditions(m.tb, p, "mypy", "mypy.ini", ".mypy.ini")
}

func (m *Mypy) Apply(ctx context.Context, p boost.Project) error {
	if err := addDevPackage(ctx, m.tb, p.Root, "lint", "mypy"); err != nil {
		return err
	}
	if err := writeFile(p.Root, mypyFile, mypyConfig); err != nil {
		return err
	}

	for i := 1; i <= maxMypyIterations; i++ {
		out, exitCode, err := m.tb.exec(ctx, p.Root, "uv run mypy .")
		if err != nil {
			return err
		}
		if exitCode == 0 {
			m.tb.logger().Info("mypy passed", "iteration", i)
			return nil
		}
		violations := parseMypyErrors(out)
		if len(violations) == 0 {
			m.tb.logger().Info("no parseable mypy errors, stopping", "iteration", i, "exit_code", exitCode)
			return nil
		}
		m.tb.logger().Info("suppressing mypy errors", "iteration", i, "locations", len(violations))
		if err := applyTypeIgnores(p.Root, violations); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mypy) Verification(p boost.Project) verify.Check {
	return verify.Check{Name: "mypy", Command: "uv run mypy ."}
}

func (m *Mypy) CommitMessage(p boost.Project) string {
	return "Add strict mypy type checking"
}

type location struct {
	file string
	line int
}

// parseMypyErrors maps each reported file:line to the error codes on it.
func parseMypyErrors(output string) map[location]map[string]bool {
	violations := make(map[location]map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		m := mypyErrorRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		loc := location{file: m[1], line: n}
		if violations[loc] == nil {
			violations[loc] = make(map[string]bool)
		}
		violations[loc][m[3]] = true
	}
	return violations
}

func applyTypeIgnores(root string, violations map[location]map[string]bool) error {
	byFile := make(map[string]map[int]map[string]bool)
	for loc, codes := range violations {
		if byFile[loc.file] == nil {
			byFile[loc.file] = make(map[int]map[string]bool)
		}
		byFile[loc.file][loc.line] = codes
	}

	for file, lines := range byFile {
		path := filepath.Join(root, file)
		if rel, err := filepath.Rel(root, path); err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read %s: %w", file, err)
		}
		src := strings.SplitAfter(string(data), "\n")
		for n, codes := range lines {
			if n < 1 || n > len(src) {
				continue
			}
			src[n-1] = mergeTypeIgnore(src[n-1], codes)
		}
		if err := os.WriteFile(path, []byte(strings.Join(src, "")), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	return nil
}

// mergeTypeIgnore adds codes to the line's type: ignore comment, creating
// one if needed. The line ending is preserved.
func mergeTypeIgnore(rawLine string, codes map[string]bool) string {
	line := strings.TrimRight(rawLine, "\r\n")
	eol := rawLine[len(line):]

	all := make(map[string]bool, len(codes))
	for c := range codes {
		all[c] = true
	}

	m := typeIgnoreRe.FindStringSubmatchIndex(line)
	if m == nil {
		return line + "  # type: ignore[" + joinCodes(all) + "]" + eol
	}
	if m[2] >= 0 {
		for _, c := range strings.Split(line[m[2]:m[3]], ",") {
			if c = strings.TrimSpace(c); c != "" {
				all[c] = true
			}
		}
	}
	return line[:m[0]] + "# type: ignore[" + joinCodes(all) + "]" + line[m[1]:] + eol
}

func joinCodes(codes map[string]bool) string {
	out := make([]string, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
