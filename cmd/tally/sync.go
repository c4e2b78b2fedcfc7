package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/config"
	"github.com/petgully/tally/internal/learn"
	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/narration"
	"github.com/petgully/tally/internal/sheets"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull corrected labels back from the review spreadsheet",
		Long: `Read the Google Sheets review spreadsheet, apply every manually
corrected label to the local corpus, and derive manual rules from the
corrections so the same narration never needs correcting twice.`,
		RunE: runSync,
	}

	cmd.Flags().Bool("no-learn", false, "apply corrections without deriving manual rules")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	noLearn, _ := cmd.Flags().GetBool("no-learn")
	ctx := cmd.Context()

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets configuration: %w", err)
	}

	logger := slog.Default()
	reader, err := sheets.NewReader(ctx, *sheetsCfg, logger)
	if err != nil {
		return err
	}

	corrections, err := reader.ReadCorrections(ctx)
	if err != nil {
		return err
	}
	if len(corrections) == 0 {
		cmd.Println(cli.SubtleStyle.Render("No corrections found in the review sheet."))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	applied := 0
	var labeled []model.LabeledTransaction
	for _, c := range corrections {
		if err := store.MarkReviewed(ctx, c.Hash, c.MainCategory, c.SubCategory); err != nil {
			logger.Warn("skipping correction for unknown transaction",
				"hash", c.Hash, "error", err)
			continue
		}
		applied++
		labeled = append(labeled, model.LabeledTransaction{
			Normalized:   narration.Normalize(c.Description),
			VendorText:   c.Vendor,
			MainCategory: c.MainCategory,
			SubCategory:  c.SubCategory,
			Confidence:   1.0,
		})
	}

	cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
		"%s Applied %d of %d corrections", cli.SuccessIcon, applied, len(corrections))))

	if noLearn || applied == 0 {
		return nil
	}

	candidates := learn.CandidatesFromCorrections(labeled)
	if len(candidates) == 0 {
		cmd.Println(cli.SubtleStyle.Render("Corrections yielded no manual rule candidates."))
		return nil
	}

	cache := newRuleCache(store, logger)
	return mergeCandidates(cmd, store, cache, candidates)
}
