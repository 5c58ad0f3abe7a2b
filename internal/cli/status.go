package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/repoboost/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status [repo-dir]",
	Short: "Show the recorded state of every boost for a repository",
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
		_, id, err := projectFor(cmd.Context(), cfg, dir)
		if err != nil {
			return err
		}
		store, err := state.DefaultStore(home)
		if err != nil {
			return err
		}
		ps, err := store.Load(id)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(ps, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Project: %s\n", id)
		if ps.Branch != "" {
			fmt.Fprintf(w, "Branch:  %s\n", ps.Branch)
		}
		fmt.Fprintln(w)

		fmt.Fprintf(w, "%-14s %-9s %-4s %-14s %-16s %s\n", "BOOST", "STATUS", "ATT", "CHECKPOINT", "WHEN", "REASON")
		fmt.Fprintf(w, "%-14s %-9s %-4s %-14s %-16s %s\n",
			strings.Repeat("-", 14),
			strings.Repeat("-", 9),
			strings.Repeat("-", 4),
			strings.Repeat("-", 14),
			strings.Repeat("-", 16),
			strings.Repeat("-", 6))
		for _, name := range statusOrder(cfg.Boosts, ps) {
			rec, ok := ps.Latest(name)
			if !ok {
				fmt.Fprintf(w, "%-14s %-9s %-4d %-14s %-16s %s\n", name, state.StatusPending, 0, "", "", "")
				continue
			}
			checkpoint := ""
			if rec.Checkpoint != nil {
				checkpoint = *rec.Checkpoint
				if len(checkpoint) > 12 {
					checkpoint = checkpoint[:12]
				}
			}
			reason := ellipsize(firstLine(rec.Reason), 50)
			fmt.Fprintf(w, "%-14s %-9s %-4d %-14s %-16s %s\n",
				name, rec.Status, len(ps.History(name)), checkpoint, humanize.Time(rec.Timestamp), reason)
		}
		return nil
	},
}

// statusOrder lists the configured boosts first, then any boost that only
// appears in the recorded history.
func statusOrder(configured []string, ps *state.PipelineState) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range configured {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range ps.Boosts() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

func init() {
	statusCmd.Flags().String("format", "text", "Output format: text or json")
}
