// Package commands implements smb1d's CLI: serve, config validate, and
// shares list.
package commands

import (
	"github.com/spf13/cobra"
)

// Version, Commit and Date are set by main from ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "smb1d",
	Short: "smb1d serves HTTP-addressable content over SMB1/CIFS",
	Long: `smb1d is a read-only, user-space SMB1/CIFS file server.

It exposes one or more shares backed by a directory manifest fetched over
HTTP, authenticates clients with NTLM/NTLMv2, and prefetches file bodies
with ranged HTTP requests as clients stream them.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default: defaults only)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sharesCmd)
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	return "smb1d " + Version + " (commit " + Commit + ", built " + Date + ")\n"
}
