package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [repo-dir]",
	Short: "Show past runs for a repository, or the boost events of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := repoDir(args)
		if err != nil {
			return err
		}
		cfg, home, err := loadConfig(dir)
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(home)
		if err != nil {
			return err
		}
		defer cleanup()

		w := cmd.OutOrStdout()
		runID, _ := cmd.Flags().GetString("run")
		if runID != "" {
			events, err := d.ListBoostEvents(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintf(w, "No events for run %s.\n", runID)
				return nil
			}
			fmt.Fprintf(w, "%-14s %-10s %-10s %-14s %s\n", "BOOST", "EVENT", "DURATION", "CHECKPOINT", "REASON")
			for _, e := range events {
				fmt.Fprintf(w, "%-14s %-10s %-10s %-14s %s\n",
					e.Boost, e.Event, (time.Duration(e.DurationMs) * time.Millisecond).String(), e.Checkpoint, firstLine(e.Reason))
			}
			return nil
		}

		project := ""
		if all, _ := cmd.Flags().GetBool("all"); !all {
			_, id, err := projectFor(cmd.Context(), cfg, dir)
			if err != nil {
				return err
			}
			project = string(id)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := d.ListRuns(cmd.Context(), project, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs found.")
			return nil
		}

		fmt.Fprintf(w, "%-36s %-10s %-16s %-14s %s\n", "RUN", "RESULT", "STARTED", "FAILED", "PROJECT")
		fmt.Fprintf(w, "%-36s %-10s %-16s %-14s %s\n",
			strings.Repeat("-", 36),
			strings.Repeat("-", 10),
			strings.Repeat("-", 16),
			strings.Repeat("-", 14),
			strings.Repeat("-", 7))
		for _, r := range runs {
			result := r.Result
			if result == "" {
				result = "running"
			}
			fmt.Fprintf(w, "%-36s %-10s %-16s %-14s %s\n",
				r.RunID, result, humanize.Time(r.StartedAt), r.FailedBoost, r.Project)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("run", "", "show the boost events of this run")
	historyCmd.Flags().Bool("all", false, "list runs for every project")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}
