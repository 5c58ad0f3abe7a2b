package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	configPath string
	homeDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "repoboost",
	Short: "repoboost: add modern tooling to a Python repository, one commit at a time",
	Long: `repoboost applies a sequence of boosts (gitignore, uv, ruff, mypy,
pre-commit, justfile and any commands declared in .repoboost.yaml) to a git
repository. Each boost is checked, applied, verified and committed on a
working branch, so a failed run can be fixed and resumed.

Per-project state is stored in ~/.repoboost/state/ (JSON) and run history in
~/.repoboost/repoboost.db (SQLite).`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger returns a text logger on w, at debug level with --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to run config file (default: .repoboost.yaml, then <home>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "state directory (default: $REPOBOOST_HOME or ~/.repoboost)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(boostsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(templatesCmd)
}
