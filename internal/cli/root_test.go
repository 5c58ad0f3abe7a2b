package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lucasnoah/repoboost/internal/engine"
)

func executeCommand(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags puts every flag in the tree back to its default. cobra keeps
// parsed values on the shared commands between Execute calls, including
// --help.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// inDir switches the working directory for the rest of the test.
func inDir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestVersionCommand(t *testing.T) {
	SetVersion("test-version")
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "test-version") {
		t.Errorf("expected version output to contain 'test-version', got: %s", out)
	}
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSubcommands := []string{
		"run", "status", "history", "boosts", "config",
		"state", "db", "templates", "version",
	}
	for _, sub := range expectedSubcommands {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	cases := [][]string{
		{"run"}, {"status"}, {"history"}, {"boosts"},
		{"config", "validate"}, {"config", "show"},
		{"state", "list"}, {"state", "path"}, {"state", "reset"},
		{"db", "migrate"}, {"db", "reset"},
		{"templates", "list"}, {"templates", "install"},
	}
	for _, c := range cases {
		out, err := executeCommand(append(c, "--help")...)
		if err != nil {
			t.Errorf("%s --help failed: %v", strings.Join(c, " "), err)
		}
		if out == "" {
			t.Errorf("%s --help produced no output", strings.Join(c, " "))
		}
	}
}

func TestRunHelp_Flags(t *testing.T) {
	out, err := executeCommand("run", "--help")
	if err != nil {
		t.Fatalf("run --help: %v", err)
	}
	for _, flag := range []string{"--branch", "--boost", "--config", "--home"} {
		if !strings.Contains(out, flag) {
			t.Errorf("run --help does not mention %s:\n%s", flag, out)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := executeCommand("nonexistent")
	if err == nil {
		t.Error("expected error for unknown command, got nil")
	}
}

func TestResolveConfigPath_FileNotFound(t *testing.T) {
	_, err := resolveConfigPath("/nonexistent/path/.repoboost.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent config file, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got: %v", err)
	}
}

func TestResolveConfigPath_Empty(t *testing.T) {
	got, err := resolveConfigPath("")
	if err != nil {
		t.Fatalf("unexpected error for empty flag: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestResolveConfigPath_RelativeResolvesToAbsolute(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "boost.yaml")
	if err := os.WriteFile(cfgPath, []byte("branch: feat/test\n"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	inDir(t, dir)

	got, err := resolveConfigPath("boost.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q", got)
	}
	// Resolve symlinks for comparison (macOS /var → /private/var)
	wantResolved, _ := filepath.EvalSymlinks(cfgPath)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("got %q, want %q", got, cfgPath)
	}
}

func TestConfigShow_RepoFile(t *testing.T) {
	repo := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, ".repoboost.yaml"), []byte("branch: chore/tooling\nboosts: [gitignore, ruff]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	inDir(t, repo)

	out, err := executeCommand("config", "show", "--home", t.TempDir())
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "branch: chore/tooling") {
		t.Errorf("expected configured branch in output:\n%s", out)
	}
	if !strings.Contains(out, "loaded from") {
		t.Errorf("expected source line in output:\n%s", out)
	}
	if !strings.Contains(out, "verify_timeout: 5m0s") {
		t.Errorf("expected defaults merged into output:\n%s", out)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("boosts: [gitignore, nope]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := executeCommand("config", "validate", "--config", cfgPath, "--home", t.TempDir())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "nope") {
		t.Errorf("expected unknown boost in output:\n%s", out)
	}
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("verify_timeout: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := executeCommand("run", dir, "--config", cfgPath, "--home", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "verify_timeout") {
		t.Fatalf("expected verify_timeout validation error, got %v", err)
	}
}

func TestBoostsList(t *testing.T) {
	inDir(t, t.TempDir())
	out, err := executeCommand("boosts", "--home", t.TempDir())
	if err != nil {
		t.Fatalf("boosts: %v", err)
	}
	for _, name := range []string{"gitignore", "uv", "ruff", "mypy", "pre-commit", "justfile"} {
		if !strings.Contains(out, name) {
			t.Errorf("boosts output missing %q:\n%s", name, out)
		}
	}
}

func TestTemplatesInstall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmpl")
	out, err := executeCommand("templates", "install", dir)
	if err != nil {
		t.Fatalf("templates install: %v", err)
	}
	if !strings.Contains(out, "wrote justfile") {
		t.Errorf("expected justfile to be written:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "justfile")); err != nil {
		t.Errorf("justfile not installed: %v", err)
	}

	out, err = executeCommand("templates", "install", dir)
	if err != nil {
		t.Fatalf("second install: %v", err)
	}
	if !strings.Contains(out, "already present") {
		t.Errorf("second install should write nothing:\n%s", out)
	}
}

func TestStateList_Empty(t *testing.T) {
	inDir(t, t.TempDir())
	out, err := executeCommand("state", "list", "--home", t.TempDir())
	if err != nil {
		t.Fatalf("state list: %v", err)
	}
	if !strings.Contains(out, "No projects found.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestStateReset_UnknownProject(t *testing.T) {
	inDir(t, t.TempDir())
	_, err := executeCommand("state", "reset", "--project", "nobody-123", "--home", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no state for nobody-123") {
		t.Fatalf("expected missing state error, got %v", err)
	}
}

func TestHelpDoesNotCarryIntoNextCommand(t *testing.T) {
	inDir(t, t.TempDir())
	if _, err := executeCommand("boosts", "--help"); err != nil {
		t.Fatalf("boosts --help: %v", err)
	}

	out, err := executeCommand("boosts", "--home", t.TempDir())
	if err != nil {
		t.Fatalf("boosts: %v", err)
	}
	if strings.Contains(out, "Usage:") || !strings.Contains(out, "gitignore") {
		t.Errorf("expected the boost list, got help:\n%s", out)
	}
}

func TestStateReset_RejectsPathEscape(t *testing.T) {
	inDir(t, t.TempDir())
	home := t.TempDir()
	victim := filepath.Join(home, "victim.json")
	if err := os.WriteFile(victim, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write victim: %v", err)
	}

	_, err := executeCommand("state", "reset", "--project", "../victim", "--home", home)
	if err == nil || !strings.Contains(err.Error(), "invalid project identity") {
		t.Fatalf("expected invalid identity error, got %v", err)
	}
	if _, err := os.Stat(victim); err != nil {
		t.Errorf("victim file removed: %v", err)
	}
}

func TestRun_RejectsBranchFlagGitWouldRename(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand("run", dir, "--branch", "my branch", "--home", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), `invalid branch name "my branch"`) {
		t.Fatalf("expected branch validation error, got %v", err)
	}
}

func TestDBMigrate(t *testing.T) {
	home := t.TempDir()
	out, err := executeCommand("db", "migrate", "--home", home)
	if err != nil {
		t.Fatalf("db migrate: %v", err)
	}
	if !strings.Contains(out, filepath.Join(home, "repoboost.db")) {
		t.Errorf("expected db path in output:\n%s", out)
	}
}

func TestPrintResult(t *testing.T) {
	res := &engine.Result{
		Identity:    "github.com_acme_widgets-abc123",
		Branch:      "feat/repoboost",
		Status:      engine.StatusAborted,
		FailedBoost: "mypy",
		Reason:      "mypy: verification \"mypy\" failed with exit code 1\nsrc/app.py:3: error",
		Outcomes: []engine.Outcome{
			{Boost: "gitignore", Kind: engine.OutcomeSatisfied},
			{Boost: "ruff", Kind: engine.OutcomeApplied, Checkpoint: "0123456789ab", Duration: 1500 * time.Millisecond},
			{Boost: "mypy", Kind: engine.OutcomeFailed, Reason: "mypy: verification \"mypy\" failed with exit code 1\nsrc/app.py:3: error", Err: errors.New("x")},
		},
	}
	var buf bytes.Buffer
	printResult(&buf, res)
	out := buf.String()

	for _, want := range []string{"0123456789ab", "1.5s", "ABORTED: 1 new commit", "mypy failed:", "src/app.py:3: error"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestEllipsize(t *testing.T) {
	if got := ellipsize("short", 10); got != "short" {
		t.Errorf("ellipsize(short) = %q", got)
	}
	if got := ellipsize("abcdefghijkl", 10); got != "abcdefg..." {
		t.Errorf("ellipsize(ascii) = %q", got)
	}
	// The cut at byte 7 lands inside the second "é".
	got := ellipsize("abcdéé-rest", 10)
	if !utf8.ValidString(got) {
		t.Fatalf("ellipsize split a rune: %q", got)
	}
	if got != "abcdé..." {
		t.Errorf("ellipsize(utf8) = %q", got)
	}
}
