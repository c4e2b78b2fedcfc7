package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/config"
	"github.com/petgully/tally/internal/csvio"
	"github.com/petgully/tally/internal/service"
	"github.com/petgully/tally/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export categorized transactions",
		Long: `Export categorized transactions as CSV or push them to the Google
Sheets review spreadsheet.`,
		RunE: runExport,
	}

	cmd.Flags().String("to", "csv", "export target: csv or sheets")
	cmd.Flags().String("output", "", "output file for CSV export (default: stdout)")
	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "end date (YYYY-MM-DD)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	target, _ := cmd.Flags().GetString("to")
	output, _ := cmd.Flags().GetString("output")
	fromStr, _ := cmd.Flags().GetString("from")
	untilStr, _ := cmd.Flags().GetString("until")
	ctx := cmd.Context()

	from, err := parseDateFlag(fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	until, err := parseDateFlag(untilStr)
	if err != nil {
		return fmt.Errorf("invalid --until: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	classified, err := store.GetClassifiedTransactions(ctx, from, until)
	if err != nil {
		return fmt.Errorf("failed to load classified transactions: %w", err)
	}
	if len(classified) == 0 {
		cmd.Println(cli.SubtleStyle.Render("Nothing to export."))
		return nil
	}

	switch target {
	case "csv":
		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := csvio.WriteClassified(w, classified); err != nil {
			return err
		}
	case "sheets":
		sheetsCfg, err := config.LoadSheetsConfig()
		if err != nil {
			return fmt.Errorf("sheets configuration: %w", err)
		}
		var reporter service.ReportWriter
		reporter, err = sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
		if err != nil {
			return err
		}
		if err := reporter.Write(ctx, classified); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export target %q", target)
	}

	cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
		"%s Exported %d transactions to %s", cli.SuccessIcon, len(classified), target)))
	return nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
