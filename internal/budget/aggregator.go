// Package budget computes per-budget spending summaries and raises alerts
// when a budget's cap is exceeded.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/period"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
)

// Aggregator summarizes spending against each active budget's current
// period window.
type Aggregator struct {
	storage service.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// NewAggregator creates an aggregator. The clock is injectable for tests.
func NewAggregator(storage service.Storage) *Aggregator {
	return &Aggregator{
		storage: storage,
		logger:  slog.Default().With("component", "budget"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Summarize computes one summary per active budget: the current window from
// the budget's anchor, the settled spending inside it, and whether the cap
// is exceeded. Pending transactions never count toward spend.
func (a *Aggregator) Summarize(ctx context.Context, userID string) ([]service.BudgetSummary, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	budgets, err := a.storage.GetActiveBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	reference := a.now()
	summaries := make([]service.BudgetSummary, 0, len(budgets))

	for _, b := range budgets {
		window := period.Compute(b.StartDate, b.Period, reference)

		spent, err := a.storage.SumSpendingInWindow(ctx, userID, b.Category, b.Subcategory, window.Start, window.End)
		if err != nil {
			return nil, fmt.Errorf("failed to sum spending for budget %s: %w", b.ID, err)
		}

		summaries = append(summaries, service.BudgetSummary{
			BudgetID:    b.ID,
			Category:    b.Category,
			Subcategory: b.Subcategory,
			Window:      window,
			Spent:       spent,
			Cap:         b.CapAmount,
			Remaining:   b.CapAmount - spent,
			Exceeded:    spent > b.CapAmount,
		})
	}

	a.logger.Debug("Summarized budgets", "count", len(summaries))

	return summaries, nil
}
