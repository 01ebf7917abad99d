package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openengine/crawler/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the relational schema (spec.md §6) to the configured Postgres database",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDie()

	db, err := store.Open(store.DSN(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB))
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	fmt.Println("schema applied")
	return nil
}
