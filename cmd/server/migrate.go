package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"blueprints/internal/platform/postgres"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, root, func(c *cobra.Command, db *sql.DB) error {
				return postgres.Migrate(c.Context(), db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, root, func(c *cobra.Command, db *sql.DB) error {
				return postgres.Rollback(c.Context(), db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, root, func(c *cobra.Command, db *sql.DB) error {
				v, err := postgres.Version(c.Context(), db)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.OutOrStdout(), "schema version %d\n", v)
				return err
			})
		},
	})
	return cmd
}

func withDB(cmd *cobra.Command, root *rootOptions, fn func(*cobra.Command, *sql.DB) error) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}
	db, err := postgres.Open(cmd.Context(), cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cmd, db)
}
