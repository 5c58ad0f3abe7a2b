package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/repoboost/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and inspect the run configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the run configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCurrentConfig()
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			cmd.Println("Configuration is valid.")
			return nil
		}

		cmd.Println("Validation errors:")
		for _, e := range errs {
			cmd.Printf("  - %s\n", e)
		}
		return fmt.Errorf("config has %d validation error(s)", len(errs))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration with defaults merged",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCurrentConfig()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}

		if cfg.Source != "" {
			cmd.Printf("# loaded from %s\n", cfg.Source)
		} else {
			cmd.Println("# built-in defaults")
		}
		cmd.Print(string(data))
		return nil
	},
}

// loadCurrentConfig loads the config for the repository in the working
// directory.
func loadCurrentConfig() (*config.Config, error) {
	dir, err := repoDir(nil)
	if err != nil {
		return nil, err
	}
	cfg, _, err := loadConfig(dir)
	return cfg, err
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
