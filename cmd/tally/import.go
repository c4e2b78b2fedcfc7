package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/csvio"
	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import bank statements",
		Long: `Import transactions from OFX/QFX or CSV bank statement exports.

Duplicate transactions are detected by content hash and skipped, so
re-importing an overlapping statement is safe.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "", "statement format: ofx or csv (default: by file extension)")
	cmd.Flags().String("account", "", "account identifier for CSV statements")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	account, _ := cmd.Flags().GetString("account")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	totalParsed := 0
	totalInserted := 0

	for _, path := range args {
		transactions, err := parseStatementFile(cmd, path, format, account)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if len(transactions) == 0 {
			slog.Warn("statement contained no transactions", "file", path)
			continue
		}

		inserted, err := store.SaveTransactions(ctx, transactions)
		if err != nil {
			return fmt.Errorf("failed to save transactions from %s: %w", path, err)
		}

		totalParsed += len(transactions)
		totalInserted += inserted
		slog.Info("imported statement",
			"file", path, "parsed", len(transactions), "new", inserted)
	}

	cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
		"%s Imported %d transactions (%d new, %d duplicates skipped)",
		cli.SuccessIcon, totalParsed, totalInserted, totalParsed-totalInserted)))

	return nil
}

func parseStatementFile(cmd *cobra.Command, path, format, account string) ([]model.Transaction, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ofx", ".qfx":
			format = "ofx"
		case ".csv":
			format = "csv"
		default:
			return nil, fmt.Errorf("cannot infer format from extension; use --format")
		}
	}

	file, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	switch format {
	case "ofx":
		return ofx.NewParser().ParseFile(cmd.Context(), file)
	case "csv":
		if account == "" {
			return nil, fmt.Errorf("--account is required for CSV statements")
		}
		return csvio.ParseStatement(file, account, slog.Default())
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
