package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/repoboost/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and reset per-project boost state",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every project with recorded state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := currentStore()
		if err != nil {
			return err
		}
		states, err := store.List()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(states) == 0 {
			fmt.Fprintln(w, "No projects found.")
			return nil
		}
		fmt.Fprintf(w, "%-48s %-8s %-16s %s\n", "PROJECT", "RECORDS", "UPDATED", "REPO")
		for _, ps := range states {
			fmt.Fprintf(w, "%-48s %-8d %-16s %s\n", ps.Identity, len(ps.Records), humanize.Time(ps.UpdatedAt), ps.RepoPath)
		}
		return nil
	},
}

var statePathCmd = &cobra.Command{
	Use:   "path [repo-dir]",
	Short: "Print the state file path for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, id, err := currentProject(cmd, args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path(id))
		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset [repo-dir]",
	Short: "Delete a repository's state so every boost runs again (destructive!)",
	Long: `Reset deletes the recorded state of a project. Commits already made on the
working branch are left alone; the next run re-checks every boost.

Use --project to reset a project by identity (see 'repoboost state list').`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			store *state.Store
			id    state.Identity
			err   error
		)
		if project, _ := cmd.Flags().GetString("project"); project != "" {
			store, err = currentStore()
			id = state.Identity(project)
		} else {
			store, id, err = currentProject(cmd, args)
		}
		if err != nil {
			return err
		}
		if err := store.Delete(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset state for %s\n", id)
		return nil
	},
}

func currentStore() (*state.Store, error) {
	dir, err := repoDir(nil)
	if err != nil {
		return nil, err
	}
	_, home, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}
	return state.DefaultStore(home)
}

func currentProject(cmd *cobra.Command, args []string) (*state.Store, state.Identity, error) {
	dir, err := repoDir(args)
	if err != nil {
		return nil, "", err
	}
	cfg, home, err := loadConfig(dir)
	if err != nil {
		return nil, "", err
	}
	_, id, err := projectFor(cmd.Context(), cfg, dir)
	if err != nil {
		return nil, "", err
	}
	store, err := state.DefaultStore(home)
	if err != nil {
		return nil, "", err
	}
	return store, id, nil
}

func init() {
	stateResetCmd.Flags().String("project", "", "project identity to reset instead of the repository's")
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(statePathCmd)
	stateCmd.AddCommand(stateResetCmd)
}
