package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/learn"
	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/service"
	"github.com/petgully/tally/internal/storage"
	"github.com/petgully/tally/internal/tui"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Mine the labeled corpus for new rules",
		Long: `Group labeled transactions by narration pattern, propose rules for
groups that clear the frequency and confidence thresholds, and merge the
approved candidates into the rule set.

Candidates pass through an interactive review unless --yes is given.`,
		RunE: runLearn,
	}

	cmd.Flags().Bool("dry-run", false, "show candidates without merging")
	cmd.Flags().Bool("yes", false, "skip interactive review and accept every candidate")
	cmd.Flags().Int("min-frequency", 3, "smallest pattern group that can produce a rule")
	cmd.Flags().Float64("min-confidence", 0.7, "smallest mean confidence that can produce a rule")
	cmd.Flags().Int("max-rules", 0, "cap on proposed rules per run (0 = no cap)")
	cmd.Flags().Bool("include-unreviewed", false, "learn from labeled but not yet reviewed transactions")

	return cmd
}

func runLearn(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	minFrequency, _ := cmd.Flags().GetInt("min-frequency")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	maxRules, _ := cmd.Flags().GetInt("max-rules")
	includeUnreviewed, _ := cmd.Flags().GetBool("include-unreviewed")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	logger := slog.Default()

	corpus, err := store.GetLabeledTransactions(ctx, storage.LabeledTransactionFilter{
		ReviewedOnly:  !includeUnreviewed,
		MinConfidence: minConfidence,
	})
	if err != nil {
		return fmt.Errorf("failed to load labeled corpus: %w", err)
	}
	if len(corpus) == 0 {
		cmd.Println(cli.SubtleStyle.Render("No labeled transactions to learn from."))
		return nil
	}

	cache := newRuleCache(store, logger)
	snapshot, err := cache.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rule set: %w", err)
	}

	bar := progressbar.NewOptions(len(corpus),
		progressbar.OptionSetDescription("Mining patterns"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	learner := learn.NewLearner(logger)
	candidates := learner.Learn(corpus, learn.Options{
		MinFrequency:  minFrequency,
		MinConfidence: minConfidence,
		MaxRules:      maxRules,
		Progress:      func(_, _ int) { _ = bar.Add(1) },
	}, snapshot.Keywords())

	if len(candidates) == 0 {
		cmd.Println(cli.SubtleStyle.Render("No rule candidates cleared the thresholds."))
		return nil
	}

	if dryRun {
		printCandidates(cmd, candidates)
		cmd.Println(cli.WarningStyle.Render("Dry run: nothing was merged."))
		return nil
	}

	approved := candidates
	if !yes {
		review, err := tui.Review(ctx, candidates)
		if err != nil {
			return err
		}
		if review.Aborted {
			cmd.Println(cli.WarningStyle.Render("Review aborted; rule set unchanged."))
			return nil
		}
		approved = review.Approved
	}
	if len(approved) == 0 {
		cmd.Println(cli.SubtleStyle.Render("No candidates approved."))
		return nil
	}

	return mergeCandidates(cmd, store, cache, approved)
}

// mergeCandidates plans and commits a merge, invalidating the snapshot cache
// on success. Shared with the sync command's manual-rule path.
func mergeCandidates(cmd *cobra.Command, store service.Storage, cache interface{ Invalidate() }, candidates []model.CandidateRule) error {
	ctx := cmd.Context()
	logger := slog.Default()

	current, err := store.GetActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current rules: %w", err)
	}
	salary, err := store.GetSalaryRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load salary rules: %w", err)
	}

	merger := learn.NewMerger(logger)
	plan := merger.Plan(candidates, current, salary)

	if len(plan.Updated) == 0 && len(plan.Inserted) == 0 {
		cmd.Println(cli.SubtleStyle.Render(fmt.Sprintf(
			"Nothing to merge (%d duplicates rejected).", len(plan.Rejected))))
		return nil
	}

	if err := merger.Commit(ctx, store, plan); err != nil {
		return fmt.Errorf("merge failed, rule set unchanged: %w", err)
	}
	cache.Invalidate()

	cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
		"%s Merge complete: %d inserted, %d updated, %d rejected",
		cli.SuccessIcon, len(plan.Inserted), len(plan.Updated), len(plan.Rejected))))

	return nil
}

func printCandidates(cmd *cobra.Command, candidates []model.CandidateRule) {
	cmd.Println(cli.TitleStyle.Render(fmt.Sprintf("Rule candidates (%d)", len(candidates))))
	for _, c := range candidates {
		if c.IsSalary() {
			cmd.Printf("  %-40s employee=%s → %s\n",
				truncate(c.Name, 40), c.EmployeeName, c.SubCategory)
			continue
		}
		cmd.Printf("  %-40s prio=%-3d freq=%-4d conf=%.2f → %s / %s\n",
			truncate(c.Name, 40), c.Priority, c.Frequency, c.Confidence,
			c.MainCategory, c.SubCategory)
	}
}
