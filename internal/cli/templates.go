package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/repoboost/internal/render"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List or install the file templates boosts write",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range render.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var templatesInstallCmd = &cobra.Command{
	Use:   "install [dir]",
	Short: "Copy the built-in templates into the templates directory for editing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		} else {
			cwd, err := repoDir(nil)
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(cwd)
			if err != nil {
				return err
			}
			dir = cfg.TemplatesDir
		}

		written, err := render.Install(dir)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(written) == 0 {
			fmt.Fprintf(w, "All templates already present in %s\n", dir)
			return nil
		}
		for _, name := range written {
			fmt.Fprintf(w, "wrote %s\n", name)
		}
		fmt.Fprintf(w, "Templates in %s override the built-in copies.\n", dir)
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesInstallCmd)
}
