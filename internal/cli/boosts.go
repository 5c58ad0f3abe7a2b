package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/repoboost/internal/boosts"
)

var boostsCmd = &cobra.Command{
	Use:   "boosts",
	Short: "List the boosts this config can run",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := repoDir(nil)
		if err != nil {
			return err
		}
		cfg, _, err := loadConfig(dir)
		if err != nil {
			return err
		}

		enabled := make(map[string]int, len(cfg.Boosts))
		for i, name := range cfg.Boosts {
			enabled[name] = i + 1
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-14s %-6s %s\n", "BOOST", "ORDER", "DESCRIPTION")
		for _, b := range boosts.Available(cfg, boosts.NewToolbox(cfg, nil)) {
			order := "-"
			if n, ok := enabled[b.Name()]; ok {
				order = fmt.Sprint(n)
			}
			desc := ""
			if d, ok := b.(boosts.Describer); ok {
				desc = d.Description()
			}
			fmt.Fprintf(w, "%-14s %-6s %s\n", b.Name(), order, desc)
		}
		return nil
	},
}
