package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify imported transactions",
		Long: `Run every unclassified transaction through the decision pipeline:
salary-name rules, keyword rules in priority order, the statistical
scorer, and finally the LLM sub-category suggester.`,
		RunE: runClassify,
	}

	cmd.Flags().Int("limit", 0, "classify at most N transactions (0 = all)")
	cmd.Flags().Bool("llm", true, "enable the LLM sub-category fallback")
	cmd.Flags().Bool("dry-run", false, "classify without saving results")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	useLLM, _ := cmd.Flags().GetBool("llm")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	logger := slog.Default()
	cache := newRuleCache(store, logger)
	pipeline, err := buildPipeline(ctx, store, cache, useLLM, logger)
	if err != nil {
		return err
	}

	pending, err := store.GetUnclassifiedTransactions(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}
	if len(pending) == 0 {
		cmd.Println(cli.SubtleStyle.Render("Nothing to classify."))
		return nil
	}

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	counts := map[model.ClassificationSource]int{}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := pipeline.Classify(ctx, pending[i])
		counts[result.MainSource]++

		if !dryRun {
			if err := store.SaveClassification(ctx, &result); err != nil {
				return fmt.Errorf("failed to save classification: %w", err)
			}
			if result.RuleID > 0 {
				if err := store.IncrementRuleUseCount(ctx, result.RuleID); err != nil {
					logger.Warn("failed to bump rule use count",
						"rule_id", result.RuleID, "error", err)
				}
			}
		}

		_ = bar.Add(1)
	}

	cmd.Println(cli.TitleStyle.Render("Classification complete"))
	cmd.Printf("  %-14s %d\n", "total", len(pending))
	cmd.Printf("  %-14s %d\n", "by rule", counts[model.SourceRule])
	cmd.Printf("  %-14s %d\n", "by scorer", counts[model.SourceScorer])
	cmd.Printf("  %-14s %d\n", "uncategorized", counts[model.SourceNone])
	if dryRun {
		cmd.Println(cli.WarningStyle.Render("Dry run: nothing was saved."))
	}

	return nil
}
