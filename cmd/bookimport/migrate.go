package main

import (
	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/database"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newMigrateCmd(newLogger func(*cobra.Command) zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back catalog database migrations",
		Long: `Runs the catalog schema migrations against the database configured by
the DB_* and MIGRATIONS_PATH environment variables.`,
	}

	run := func(migrate func(*database.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.New(&cfg.Database, newLogger(cmd))
			if err != nil {
				return err
			}
			defer db.Close()
			return migrate(db)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run((*database.DB).RunMigrations),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE:  run((*database.DB).MigrateDown),
	})

	return cmd
}
