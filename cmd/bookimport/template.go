package main

import (
	"fmt"
	"os"

	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the CSV import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return csvimport.WriteTemplate(cmd.OutOrStdout())
			}

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := csvimport.WriteTemplate(file); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Template written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write (default stdout)")

	return cmd
}
