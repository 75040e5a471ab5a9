package main

import (
	"os"

	"github.com/bookstore-catalog-api/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "bookimport",
		Short: "Validate bookstore catalog CSV files offline",
		Long: `bookimport runs the catalog import pipeline against local CSV files.

It detects standard and alternative (author row) layouts, reports every
row error and shows the records an import would create, without a
database or a running server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if !cmd.Flags().Changed("log-level") {
				if level := os.Getenv("LOG_LEVEL"); level != "" {
					logLevel = level
				}
			}
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	newLogger := func(cmd *cobra.Command) zerolog.Logger {
		return logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, "pretty")
	}

	cmd.AddCommand(newCheckCmd(newLogger))
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newMigrateCmd(newLogger))

	return cmd
}
