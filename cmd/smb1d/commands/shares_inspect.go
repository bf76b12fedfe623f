package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rangeshare/smb1d/internal/backend/httpshare"
	"github.com/rangeshare/smb1d/internal/cli/output"
	"github.com/rangeshare/smb1d/internal/cli/timeutil"
	"github.com/rangeshare/smb1d/internal/config"
)

var sharesInspectCmd = &cobra.Command{
	Use:   "inspect <share-name>",
	Short: "Fetch a share's manifest and list its entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runSharesInspect,
}

func init() {
	sharesCmd.AddCommand(sharesInspectCmd)
}

type manifestEntryTable []httpshare.ManifestEntry

func (m manifestEntryTable) Headers() []string { return []string{"PATH", "TYPE", "SIZE", "MODIFIED"} }

func (m manifestEntryTable) Rows() [][]string {
	rows := make([][]string, len(m))
	for i, e := range m {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		rows[i] = []string{e.Path, kind, fmt.Sprintf("%d", e.Size), timeutil.FormatTime(e.ModTime)}
	}
	return rows
}

func runSharesInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	name := args[0]
	var sc *config.ShareConfig
	for i := range cfg.Shares {
		if cfg.Shares[i].Name == name {
			sc = &cfg.Shares[i]
			break
		}
	}
	if sc == nil {
		return fmt.Errorf("no share named %q in configuration", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 30 * time.Second}
	manifest, err := httpshare.FetchManifest(ctx, client, sc.ManifestURL)
	if err != nil {
		return fmt.Errorf("fetching manifest for %q: %w", name, err)
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), output.FormatTable, false)
	if len(manifest.Entries) == 0 {
		printer.Println("No entries in manifest.")
		return nil
	}
	return printer.Print(manifestEntryTable(manifest.Entries))
}
