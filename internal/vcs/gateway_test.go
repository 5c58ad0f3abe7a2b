package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type mockGit struct {
	calls   []gitCall
	results []mockResult
	idx     int
}

type gitCall struct {
	Dir  string
	Args []string
}

type mockResult struct {
	Output string
	Err    error
}

func (m *mockGit) Run(ctx context.Context, dir string, args ...string) (string, error) {
	m.calls = append(m.calls, gitCall{Dir: dir, Args: args})
	if m.idx >= len(m.results) {
		return "", nil
	}
	r := m.results[m.idx]
	m.idx++
	return r.Output, r.Err
}

func assertArgs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", got, want)
	}
}

var ctx = context.Background()

func TestAssertClean_Clean(t *testing.T) {
	git := &mockGit{results: []mockResult{{Output: ""}}}
	gw := NewGateway(git, "/repo", "")

	if err := gw.AssertClean(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if git.calls[0].Dir != "/repo" {
		t.Errorf("dir = %q, want /repo", git.calls[0].Dir)
	}
	assertArgs(t, git.calls[0].Args, "status", "--porcelain")
}

func TestAssertClean_Dirty(t *testing.T) {
	git := &mockGit{results: []mockResult{{Output: "M  app.py\n?? notes.txt"}}}
	gw := NewGateway(git, "/repo", "")

	err := gw.AssertClean(ctx)
	if !errors.Is(err, ErrDirtyWorkingTree) {
		t.Fatalf("expected ErrDirtyWorkingTree, got %v", err)
	}
	if !strings.Contains(err.Error(), "notes.txt") {
		t.Errorf("error should list dirty paths, got %v", err)
	}
}

func TestAssertClean_TruncatesLongList(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, fmt.Sprintf("?? f%d", i))
	}
	git := &mockGit{results: []mockResult{{Output: strings.Join(lines, "\n")}}}
	gw := NewGateway(git, "/repo", "")

	err := gw.AssertClean(ctx)
	if err == nil || !strings.Contains(err.Error(), "and 5 more") {
		t.Errorf("expected truncated list, got %v", err)
	}
}

func TestEnsureBranch_AlreadyCurrent(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Output: "abc123"},         // rev-parse --verify HEAD
		{Output: "feat/repoboost"}, // rev-parse --abbrev-ref HEAD
	}}
	gw := NewGateway(git, "/repo", "")

	if err := gw.EnsureBranch(ctx, "feat/repoboost"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(git.calls) != 2 {
		t.Errorf("expected 2 git calls, got %d", len(git.calls))
	}
}

func TestEnsureBranch_Creates(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Output: "abc123"}, // HEAD
		{Output: "main"},   // current branch
		{Output: ""},       // branch --list: absent
		{Output: ""},       // checkout -b
	}}
	gw := NewGateway(git, "/repo", "")

	if err := gw.EnsureBranch(ctx, "feat/repoboost"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(git.calls) != 4 {
		t.Fatalf("expected 4 git calls, got %d", len(git.calls))
	}
	assertArgs(t, git.calls[2].Args, "branch", "--list", "feat/repoboost")
	assertArgs(t, git.calls[3].Args, "checkout", "-b", "feat/repoboost")
}

func TestEnsureBranch_ReusesCompatible(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Output: "abc123"},
		{Output: "main"},
		{Output: "  feat/repoboost"}, // exists
		{Output: "  feat/repoboost"}, // contains HEAD
		{Output: ""},                 // checkout
	}}
	gw := NewGateway(git, "/repo", "")

	if err := gw.EnsureBranch(ctx, "feat/repoboost"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertArgs(t, git.calls[3].Args, "branch", "--list", "feat/repoboost", "--contains", "HEAD")
	assertArgs(t, git.calls[4].Args, "checkout", "feat/repoboost")
}

func TestEnsureBranch_Conflict(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Output: "abc123"},
		{Output: "main"},
		{Output: "  feat/repoboost"}, // exists
		{Output: ""},                 // does not contain HEAD
	}}
	gw := NewGateway(git, "/repo", "")

	err := gw.EnsureBranch(ctx, "feat/repoboost")
	if !errors.Is(err, ErrBranchConflict) {
		t.Fatalf("expected ErrBranchConflict, got %v", err)
	}
	for _, c := range git.calls {
		if c.Args[0] == "checkout" {
			t.Errorf("must not switch branches on conflict, got %v", c.Args)
		}
	}
}

func TestEnsureBranch_NoCommits(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Err: fmt.Errorf("fatal: needed a single revision")},
	}}
	gw := NewGateway(git, "/repo", "")

	if err := gw.EnsureBranch(ctx, "feat/repoboost"); !errors.Is(err, ErrNoCommits) {
		t.Fatalf("expected ErrNoCommits, got %v", err)
	}
}

func TestCommitAll_HappyPath(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Output: ""},              // add -A
		{Output: "A  .gitignore"}, // status
		{Output: ""},              // commit
		{Output: "deadbeef"},      // rev-parse HEAD
	}}
	gw := NewGateway(git, "/repo", "Bot <bot@example.com>")

	sha, err := gw.CommitAll(ctx, "Add gitignore")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "deadbeef" {
		t.Errorf("sha = %q, want deadbeef", sha)
	}
	assertArgs(t, git.calls[0].Args, "add", "-A")
	assertArgs(t, git.calls[2].Args, "commit", "--no-verify", "--author", "Bot <bot@example.com>", "-m", "Add gitignore")
}

func TestCommitAll_NothingToCommit(t *testing.T) {
	git := &mockGit{results: []mockResult{
		{Output: ""}, // add -A
		{Output: ""}, // status: clean
	}}
	gw := NewGateway(git, "/repo", "")

	_, err := gw.CommitAll(ctx, "msg")
	if !errors.Is(err, ErrNothingToCommit) {
		t.Fatalf("expected ErrNothingToCommit, got %v", err)
	}
	if len(git.calls) != 2 {
		t.Errorf("expected no commit call, got %d calls", len(git.calls))
	}
}

func TestCommitAll_UsesDefaultAuthor(t *testing.T) {
	git := &mockGit{results: []mockResult{{}, {Output: "M x"}, {}, {Output: "sha"}}}
	gw := NewGateway(git, "/repo", "")

	if _, err := gw.CommitAll(ctx, "msg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertArgs(t, git.calls[2].Args, "commit", "--no-verify", "--author", DefaultAuthor, "-m", "msg")
}

func TestOriginURL(t *testing.T) {
	git := &mockGit{results: []mockResult{{Output: "git@github.com:acme/widget.git"}}}
	gw := NewGateway(git, "/repo", "")
	url, err := gw.OriginURL(ctx)
	if err != nil || url != "git@github.com:acme/widget.git" {
		t.Errorf("OriginURL = %q, %v", url, err)
	}

	git = &mockGit{results: []mockResult{{Err: fmt.Errorf("error: No such remote 'origin'")}}}
	gw = NewGateway(git, "/repo", "")
	if _, err := gw.OriginURL(ctx); !errors.Is(err, ErrNoOrigin) {
		t.Errorf("expected ErrNoOrigin, got %v", err)
	}
}

func TestSanitizeBranch(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"feat/repoboost", "feat/repoboost"},
		{"feat/my boost!", "feat/my-boost"},
		{"--weird--", "weird"},
		{"release/1.2", "release/1.2"},
	}
	for _, tt := range tests {
		if got := SanitizeBranch(tt.in); got != tt.want {
			t.Errorf("SanitizeBranch(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
