package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/repoboost/internal/boosts"
	"github.com/lucasnoah/repoboost/internal/engine"
	"github.com/lucasnoah/repoboost/internal/state"
	"github.com/lucasnoah/repoboost/internal/verify"
)

var runCmd = &cobra.Command{
	Use:   "run [repo-dir]",
	Short: "Apply the configured boosts to a repository",
	Long: `Run checks, applies, verifies and commits each boost in order on the
working branch. Boosts applied by an earlier run are skipped, so after fixing
a failure the same command resumes where the last run stopped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := repoDir(args)
		if err != nil {
			return err
		}
		cfg, home, err := loadConfig(dir)
		if err != nil {
			return err
		}
		// Flags override the file and go through the same validation.
		if branch, _ := cmd.Flags().GetString("branch"); branch != "" {
			cfg.Branch = branch
		}
		if names, _ := cmd.Flags().GetStringSlice("boost"); len(names) > 0 {
			cfg.Boosts = names
		}
		if err := checkConfig(cfg); err != nil {
			return err
		}

		logger := newLogger(cmd.ErrOrStderr())
		list, err := boosts.Resolve(cfg.Boosts, cfg, boosts.NewToolbox(cfg, logger))
		if err != nil {
			return err
		}

		store, err := state.DefaultStore(home)
		if err != nil {
			return err
		}
		history, cleanup, err := openDB(home)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := engine.New(
			newGateway(cfg, dir),
			store,
			verify.NewRunner(&verify.ExecRunner{}, cfg.VerifyTimeoutDuration()),
			engine.WithLogger(logger),
			engine.WithEvents(history),
			engine.WithProgress(cmd.ErrOrStderr()),
		)
		res, err := p.Run(ctx, engine.RunOpts{Branch: cfg.Branch, Boosts: list})
		if res != nil {
			printResult(cmd.OutOrStdout(), res)
		}
		if err != nil {
			return err
		}
		if !res.Completed() {
			return fmt.Errorf("run aborted at %s: %s", res.FailedBoost, firstLine(res.Reason))
		}
		return nil
	},
}

// printResult writes the per-boost summary table of a run.
func printResult(w io.Writer, res *engine.Result) {
	fmt.Fprintf(w, "\nProject: %s\n", res.Identity)
	fmt.Fprintf(w, "Branch:  %s\n\n", res.Branch)

	fmt.Fprintf(w, "%-14s %-10s %-10s %s\n", "BOOST", "RESULT", "DURATION", "DETAIL")
	fmt.Fprintf(w, "%-14s %-10s %-10s %s\n",
		strings.Repeat("-", 14),
		strings.Repeat("-", 10),
		strings.Repeat("-", 10),
		strings.Repeat("-", 6))
	for _, o := range res.Outcomes {
		detail := o.Checkpoint
		if detail == "" {
			detail = firstLine(o.Reason)
		}
		detail = ellipsize(detail, 60)
		dur := "-"
		if o.Kind != engine.OutcomeSatisfied {
			dur = o.Duration.Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%-14s %-10s %-10s %s\n", o.Boost, o.Kind, dur, detail)
	}

	fmt.Fprintf(w, "\n%s: %s\n", strings.ToUpper(string(res.Status)), english.Plural(res.Commits(), "new commit", ""))
	if !res.Completed() && strings.Contains(res.Reason, "\n") {
		fmt.Fprintf(w, "\n%s failed:\n%s\n", res.FailedBoost, res.Reason)
	}
}

// ellipsize shortens s to at most n bytes without splitting a rune.
func ellipsize(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func init() {
	runCmd.Flags().StringP("branch", "b", "", "working branch (default: config branch)")
	runCmd.Flags().StringSlice("boost", nil, "boosts to run, in order (default: config boosts)")
}
