package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/budget"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage and review spending budgets",
	}

	cmd.AddCommand(budgetsStatusCmd())
	cmd.AddCommand(budgetsSetCmd())

	return cmd
}

func budgetsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show spending against each active budget's current period",
		RunE:  runBudgetsStatus,
	}
}

func runBudgetsStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	aggregator := budget.NewAggregator(store)
	summaries, err := aggregator.Summarize(ctx, currentUserID())
	if err != nil {
		return fmt.Errorf("failed to summarize budgets: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No active budgets. Create one with: pocketwatch budgets set")
		return nil
	}

	fmt.Printf("%-25s %-24s %10s %10s %10s\n", "CATEGORY", "PERIOD", "SPENT", "CAP", "REMAINING")
	for _, s := range summaries {
		name := s.Category
		if s.Subcategory != nil {
			name = fmt.Sprintf("%s/%s", s.Category, *s.Subcategory)
		}
		window := fmt.Sprintf("%s – %s",
			s.Window.Start.Format("2006-01-02"),
			s.Window.End.Format("2006-01-02"))

		marker := ""
		if s.Exceeded {
			marker = " ⚠️"
		}
		fmt.Printf("%-25s %-24s %10.2f %10.2f %10.2f%s\n",
			name, window, s.Spent, s.Cap, s.Remaining, marker)
	}

	return nil
}

func budgetsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Create or replace a budget for a category",
		Args:  cobra.ExactArgs(2),
		RunE:  runBudgetsSet,
	}

	cmd.Flags().String("period", "month", "budget period (day, week, month, year)")
	cmd.Flags().String("subcategory", "", "restrict the budget to a subcategory")
	cmd.Flags().String("start", "", "anchor date (YYYY-MM-DD, default today)")
	cmd.Flags().Int("priority", 0, "display priority, higher sorts first")

	return cmd
}

func runBudgetsSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	category := strings.TrimSpace(args[0])

	var capAmount float64
	if _, err := fmt.Sscanf(args[1], "%f", &capAmount); err != nil || capAmount <= 0 {
		return fmt.Errorf("invalid amount %q: must be a positive number", args[1])
	}

	periodFlag, _ := cmd.Flags().GetString("period")
	subcategory, _ := cmd.Flags().GetString("subcategory")
	startFlag, _ := cmd.Flags().GetString("start")
	priority, _ := cmd.Flags().GetInt("priority")

	kind := model.PeriodKind(periodFlag)
	switch kind {
	case model.PeriodDay, model.PeriodWeek, model.PeriodMonth, model.PeriodYear:
	default:
		return fmt.Errorf("invalid period %q: must be day, week, month, or year", periodFlag)
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	if startFlag != "" {
		parsed, err := time.Parse("2006-01-02", startFlag)
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", startFlag, err)
		}
		startDate = parsed
	}

	b := &model.Budget{
		ID:        uuid.New().String(),
		UserID:    currentUserID(),
		Category:  category,
		Period:    kind,
		CapAmount: capAmount,
		StartDate: startDate,
		Priority:  priority,
		Active:    true,
	}
	if subcategory != "" {
		b.Subcategory = &subcategory
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveBudget(ctx, b); err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}

	fmt.Printf("✅ Budget set: %s %.2f per %s (anchored %s)\n",
		category, capAmount, kind, startDate.Format("2006-01-02"))

	return nil
}
