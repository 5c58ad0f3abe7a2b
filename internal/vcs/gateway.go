package vcs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrDirtyWorkingTree means the working tree has changes that are not committed.
	ErrDirtyWorkingTree = errors.New("working tree is not clean")
	// ErrBranchConflict means the working branch exists but does not contain HEAD.
	ErrBranchConflict = errors.New("branch conflict")
	// ErrNothingToCommit means a commit was requested with no changes staged.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrNoCommits means the repository has no commits yet.
	ErrNoCommits = errors.New("repository has no commits")
	// ErrNoOrigin means the repository has no origin remote.
	ErrNoOrigin = errors.New("no origin remote")
)

// DefaultAuthor is used for checkpoint commits when none is configured.
const DefaultAuthor = "repoboost <repoboost@localhost>"

// maxDirtyPaths caps how many paths a dirty-tree error lists.
const maxDirtyPaths = 10

// Gateway wraps the git operations the boost pipeline needs for one repository.
type Gateway struct {
	git    GitRunner
	dir    string
	author string
}

// NewGateway creates a Gateway for the repository at dir.
func NewGateway(git GitRunner, dir string, author string) *Gateway {
	if author == "" {
		author = DefaultAuthor
	}
	return &Gateway{git: git, dir: dir, author: author}
}

// Dir returns the repository directory the gateway operates on.
func (g *Gateway) Dir() string {
	return g.dir
}

// TopLevel returns the absolute path of the repository root.
func (g *Gateway) TopLevel(ctx context.Context) (string, error) {
	out, err := g.git.Run(ctx, g.dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("resolve repository root: %w", err)
	}
	return out, nil
}

// OriginURL returns the URL of the origin remote, or ErrNoOrigin.
func (g *Gateway) OriginURL(ctx context.Context) (string, error) {
	out, err := g.git.Run(ctx, g.dir, "remote", "get-url", "origin")
	if err != nil || out == "" {
		return "", ErrNoOrigin
	}
	return out, nil
}

// Head returns the commit SHA of HEAD.
func (g *Gateway) Head(ctx context.Context) (string, error) {
	out, err := g.git.Run(ctx, g.dir, "rev-parse", "--verify", "HEAD")
	if err != nil || out == "" {
		return "", ErrNoCommits
	}
	return out, nil
}

// CurrentBranch returns the checked-out branch name ("HEAD" when detached).
func (g *Gateway) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.git.Run(ctx, g.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	return out, nil
}

// Changes returns the porcelain status entries of the working tree,
// including untracked files.
func (g *Gateway) Changes(ctx context.Context) ([]string, error) {
	out, err := g.git.Run(ctx, g.dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	var changes []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			changes = append(changes, line)
		}
	}
	return changes, nil
}

// AssertClean fails with ErrDirtyWorkingTree when anything differs from HEAD.
// Untracked files count as dirty since CommitAll would sweep them into a
// checkpoint.
func (g *Gateway) AssertClean(ctx context.Context) error {
	changes, err := g.Changes(ctx)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	shown := changes
	if len(shown) > maxDirtyPaths {
		shown = shown[:maxDirtyPaths]
	}
	msg := strings.Join(shown, ", ")
	if extra := len(changes) - len(shown); extra > 0 {
		msg += fmt.Sprintf(" (and %d more)", extra)
	}
	return fmt.Errorf("%w: %s", ErrDirtyWorkingTree, msg)
}

// BranchExists reports whether a local branch with the given name exists.
func (g *Gateway) BranchExists(ctx context.Context, name string) (bool, error) {
	out, err := g.git.Run(ctx, g.dir, "branch", "--list", name)
	if err != nil {
		return false, fmt.Errorf("list branches: %w", err)
	}
	return out != "", nil
}

// Contains reports whether commit is reachable from branch.
func (g *Gateway) Contains(ctx context.Context, branch string, commit string) (bool, error) {
	out, err := g.git.Run(ctx, g.dir, "branch", "--list", branch, "--contains", commit)
	if err != nil {
		return false, fmt.Errorf("branch --contains %s: %w", commit, err)
	}
	return out != "", nil
}

// EnsureBranch checks out the working branch, creating it from HEAD when it
// does not exist. An existing branch is reused only if it already contains
// HEAD; anything else is ErrBranchConflict and needs an operator.
func (g *Gateway) EnsureBranch(ctx context.Context, name string) error {
	name = SanitizeBranch(name)
	if name == "" {
		return fmt.Errorf("invalid branch name")
	}
	if _, err := g.Head(ctx); err != nil {
		return err
	}

	current, err := g.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current == name {
		return nil
	}

	exists, err := g.BranchExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := g.git.Run(ctx, g.dir, "checkout", "-b", name); err != nil {
			return fmt.Errorf("create branch %q: %w", name, err)
		}
		return nil
	}

	ok, err := g.Contains(ctx, name, "HEAD")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: branch %q exists and does not contain %s; rebase or delete it", ErrBranchConflict, name, current)
	}
	if _, err := g.git.Run(ctx, g.dir, "checkout", name); err != nil {
		return fmt.Errorf("switch to branch %q: %w", name, err)
	}
	return nil
}

// CommitAll stages every change, including new files, commits it with the
// configured author and returns the new commit SHA. Hooks are skipped since
// a hooks boost may have just installed them.
func (g *Gateway) CommitAll(ctx context.Context, message string) (string, error) {
	if _, err := g.git.Run(ctx, g.dir, "add", "-A"); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}
	changes, err := g.Changes(ctx)
	if err != nil {
		return "", err
	}
	if len(changes) == 0 {
		return "", ErrNothingToCommit
	}
	if _, err := g.git.Run(ctx, g.dir, "commit", "--no-verify", "--author", g.author, "-m", message); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	sha, err := g.Head(ctx)
	if err != nil {
		return "", fmt.Errorf("read new commit: %w", err)
	}
	return sha, nil
}

var nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9/_.-]+`)

// SanitizeBranch cleans up a branch name.
func SanitizeBranch(name string) string {
	s := nonAlphaNum.ReplaceAllString(name, "-")
	s = strings.Trim(s, "-/.")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
