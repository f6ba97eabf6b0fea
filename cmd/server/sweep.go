package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark past-due loans OVERDUE once and exit",
	Long: `sweep runs a single overdue sweep against the configured database and exits.
Useful from cron when the serve process runs with a long sweep interval.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "" {
		return errors.New("sweep needs a database: set database.driver")
	}

	a, err := buildApp(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer a.close()

	marked, err := a.loans.SweepOverdue(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep overdue loans: %w", err)
	}
	log.InfoContext(cmd.Context(), "overdue sweep finished", "marked", marked)
	cmd.Printf("%d loan(s) marked overdue\n", marked)
	return nil
}
