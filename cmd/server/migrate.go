package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"biblio/internal/platform/database"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "" {
		return errors.New("migrate needs a database: set database.driver")
	}

	db, err := database.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.InfoContext(cmd.Context(), "schema up to date", "driver", cfg.Database.Driver)
	return nil
}
