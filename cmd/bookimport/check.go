package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errImportFailed makes the command exit non-zero when no record would be imported
var errImportFailed = errors.New("import would not succeed")

// checkReport is what check prints for one file
type checkReport struct {
	File        string                   `json:"file" yaml:"file"`
	Format      models.ImportFormat      `json:"format,omitempty" yaml:"format,omitempty"`
	Success     bool                     `json:"success" yaml:"success"`
	TotalRows   int                      `json:"totalRows" yaml:"totalRows"`
	ValidRows   int                      `json:"validRows" yaml:"validRows"`
	RecordCount int                      `json:"recordCount" yaml:"recordCount"`
	Preview     []models.ImportedBookRow `json:"preview" yaml:"preview"`
	Errors      []string                 `json:"errors" yaml:"errors"`
}

func newCheckCmd(newLogger func(*cobra.Command) zerolog.Logger) *cobra.Command {
	var (
		output     string
		preview    int
		workers    int
		lazyQuotes bool
	)

	cmd := &cobra.Command{
		Use:   "check <file.csv>",
		Short: "Parse and validate a CSV file",
		Example: `  # Validate a file and print a YAML report
  bookimport check books.csv

  # JSON report with every accepted record
  bookimport check books.csv --output json --preview 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "yaml" && output != "json" {
				return fmt.Errorf("unsupported output %q: use yaml or json", output)
			}

			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return err
			}

			processor := csvimport.NewProcessor(csvimport.Options{
				Workers:    workers,
				LazyQuotes: lazyQuotes,
			}, newLogger(cmd))
			result := processor.ProcessFile(path)

			report := checkReport{
				File:        filepath.Base(path),
				Format:      result.Format,
				Success:     result.Success,
				TotalRows:   result.TotalRows,
				ValidRows:   result.ValidRows,
				RecordCount: len(result.Data),
				Preview:     result.Preview(preview),
				Errors:      result.Errors,
			}
			if err := writeReport(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}

			if !result.Success {
				return errImportFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "report format (yaml or json)")
	cmd.Flags().IntVar(&preview, "preview", 10, "number of records to show, 0 for all")
	cmd.Flags().IntVar(&workers, "workers", 1, "row evaluation workers")
	cmd.Flags().BoolVar(&lazyQuotes, "lazy-quotes", false, "tolerate bare quotes in unquoted fields")

	return cmd
}

func writeReport(w io.Writer, output string, report checkReport) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
