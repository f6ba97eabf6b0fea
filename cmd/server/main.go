// Command server runs the library service: the HTTP API and its background workers.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "biblio",
	Short: "Library catalog, loans and membership service",
	Long: `biblio serves the library HTTP API: catalog of books and members,
the loan engine with fines and overdue tracking, and membership accounts.
Configuration comes from an optional TOML file and BIBLIO_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
