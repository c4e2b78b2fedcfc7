package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petgully/tally/internal/cli"
	"github.com/petgully/tally/internal/learn"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and manage the rule set",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesStatsCmd())
	cmd.AddCommand(rulesDeactivateCmd())
	cmd.AddCommand(rulesValidateCmd())
	cmd.AddCommand(rulesReloadCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			salary, err := store.GetSalaryRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load salary rules: %w", err)
			}
			ruleList, err := store.GetActiveRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if len(salary) > 0 {
				cmd.Println(cli.TitleStyle.Render("Salary-name rules"))
				for _, sr := range salary {
					cmd.Printf("  %-30s → %s\n", sr.EmployeeName, sr.SubCategory)
				}
				cmd.Println()
			}

			cmd.Println(cli.TitleStyle.Render(fmt.Sprintf("Keyword rules (%d)", len(ruleList))))
			cmd.Println(cli.TableHeaderStyle.Render(
				fmt.Sprintf("%-5s %-35s %-5s %-30s %s", "ID", "Name", "Prio", "Category", "Keywords")))
			for _, r := range ruleList {
				category := fmt.Sprintf("%s / %s", r.MainCategory, r.SubCategory)
				cmd.Printf("%-5d %-35s %-5d %-30s %s\n",
					r.ID, truncate(r.Name, 35), r.Priority, truncate(category, 30),
					strings.Join(r.Any, ", "))
			}

			return nil
		},
	}
	return cmd
}

func rulesStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rule set statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			topN, _ := cmd.Flags().GetInt("top")
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.GetRuleStats(ctx, topN)
			if err != nil {
				return fmt.Errorf("failed to load rule stats: %w", err)
			}

			cmd.Println(cli.TitleStyle.Render("Rule set"))
			cmd.Printf("  %-10s %d\n", "total", stats.Total)
			cmd.Printf("  %-10s %d\n", "active", stats.Active)
			cmd.Println()

			cmd.Println(cli.TitleStyle.Render("By provenance"))
			for creator, count := range stats.ByCreator {
				cmd.Printf("  %-16s %d\n", creator, count)
			}

			if len(stats.TopUsed) > 0 {
				cmd.Println()
				cmd.Println(cli.TitleStyle.Render("Most used"))
				for _, r := range stats.TopUsed {
					cmd.Printf("  %-35s %d hits\n", truncate(r.Name, 35), r.UseCount)
				}
			}

			return nil
		},
	}
	cmd.Flags().Int("top", 10, "number of most-used rules to show")
	return cmd
}

func rulesDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <rule-id>",
		Short: "Remove a rule from the matching set without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetRuleActive(ctx, id, false); err != nil {
				return fmt.Errorf("failed to deactivate rule %d: %w", id, err)
			}

			cmd.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("%s Rule %d deactivated", cli.SuccessIcon, id)))
			return nil
		},
	}
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the structural correctness of the whole rule set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ruleList, err := store.GetActiveRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			salary, err := store.GetSalaryRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load salary rules: %w", err)
			}

			if err := learn.ValidateRuleSet(ruleList, salary); err != nil {
				cmd.Println(cli.ErrorStyle.Render(
					fmt.Sprintf("%s Rule set invalid: %v", cli.ErrorIcon, err)))
				return err
			}

			cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"%s Rule set valid: %d keyword rules, %d salary rules",
				cli.SuccessIcon, len(ruleList), len(salary))))
			return nil
		},
	}
}

func rulesReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Drop the cached rule snapshot and load a fresh one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cache := newRuleCache(store, slog.Default())
			cache.Invalidate()
			snapshot, err := cache.Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to reload rule set: %w", err)
			}

			cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"%s Rule set reloaded: %d keyword rules, %d salary rules",
				cli.SuccessIcon, len(snapshot.Rules), len(snapshot.SalaryRules))))
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
