package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadbook/leadbook/client"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import leads from a CSV file",
		Long: `Import up to 200 leads from a CSV file with a header row.
Columns: fullName (or name), email, phone, city, propertyType, bhk, purpose,
budgetMin, budgetMax, timeline, source, notes, tags, status.
Valid rows are inserted together; invalid rows are reported by row number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			result, err := apiClient.Leads.Import(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			if flagFmt == "table" {
				rows := make([][]string, 0, len(result.Errors))
				for _, re := range result.Errors {
					for _, fe := range re.Errors {
						rows = append(rows, []string{fmt.Sprint(re.Row), fe.Field, fe.Message})
					}
				}
				fmt.Printf("inserted %d, rejected %d\n\n", result.Inserted, len(result.Errors))
				if len(rows) > 0 {
					formatTable([]string{"ROW", "FIELD", "ERROR"}, rows)
				}
				return nil
			}

			output(result, fmt.Sprint(result.Inserted))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var outputPath string
	var opts client.LeadListOptions

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export your leads to a CSV file",
		Long: `Export your leads matching the optional filters as CSV.
Columns are written in a fixed order and can be re-imported with 'leadbook-cli import'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				outputPath = args[0]
			}

			if outputPath == "-" {
				return apiClient.Leads.Export(cmd.Context(), &opts, os.Stdout)
			}

			if outputPath == "" {
				outputPath = fmt.Sprintf("leads-export-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
			}

			f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}

			if err := apiClient.Leads.Export(cmd.Context(), &opts, f); err != nil {
				f.Close()
				return err
			}

			if err := f.Close(); err != nil {
				return fmt.Errorf("writing export file: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Exported leads to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: leads-export-<timestamp>.csv, use - for stdout)")
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "Match name, email or phone")
	cmd.Flags().StringVar(&opts.City, "city", "", "Filter by city")
	cmd.Flags().StringVar(&opts.PropertyType, "property-type", "", "Filter by property type")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&opts.Timeline, "timeline", "", "Filter by timeline")

	return cmd
}
