package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rangeshare/smb1d/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate smb1d's configuration file: syntax, required fields, and value
constraints (e.g. each share's manifest_url must be a valid URL).`,
	RunE: runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	display := configFile
	if display == "" {
		display = "(defaults)"
	}

	fmt.Printf("Configuration file: %s\n", display)
	fmt.Println("Validation: OK")
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Listen address:  %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Host name:       %s\n", cfg.Server.HostName)
	fmt.Printf("  Shares:          %d\n", len(cfg.Shares))
	fmt.Printf("  Allow guest:     %v\n", cfg.Auth.AllowGuest)
	fmt.Printf("  Metrics:         %v (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.ListenAddress)
	return nil
}
