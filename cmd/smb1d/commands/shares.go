package commands

import (
	"github.com/spf13/cobra"

	"github.com/rangeshare/smb1d/internal/cli/output"
	"github.com/rangeshare/smb1d/internal/config"
)

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Inspect configured shares",
}

var sharesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shares defined in the configuration file",
	RunE:  runSharesList,
}

var sharesOutputFormat string

func init() {
	sharesListCmd.Flags().StringVarP(&sharesOutputFormat, "output", "o", "table", "output format: table, json, yaml")
	sharesCmd.AddCommand(sharesListCmd)
}

// shareTable renders the configured shares as a table for output.Printer.
type shareTable []config.ShareConfig

func (s shareTable) Headers() []string { return []string{"NAME", "MANIFEST URL", "AUTH"} }

func (s shareTable) Rows() [][]string {
	rows := make([][]string, len(s))
	for i, sc := range s {
		auth := "no"
		if sc.AuthHeader != "" {
			auth = "yes"
		}
		rows[i] = []string{sc.Name, sc.ManifestURL, auth}
	}
	return rows
}

func runSharesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(sharesOutputFormat)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), format, false)
	if len(cfg.Shares) == 0 {
		printer.Println("No shares configured.")
		return nil
	}
	return printer.Print(shareTable(cfg.Shares))
}
