package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pocketwatch-app/pocketwatch/internal/model"
)

// SaveBudget inserts or replaces a budget. Budgets are edited by user
// action outside the engine; the engine itself only reads them.
func (s *SQLiteStorage) SaveBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if budget == nil {
		return fmt.Errorf("budget cannot be nil")
	}
	if err := validateString(budget.ID, "budget.ID"); err != nil {
		return err
	}
	if err := validateString(budget.Category, "budget.Category"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (
			id, user_id, category, subcategory, period, cap_amount,
			currency, start_date, rollover, priority, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			subcategory = excluded.subcategory,
			period = excluded.period,
			cap_amount = excluded.cap_amount,
			currency = excluded.currency,
			start_date = excluded.start_date,
			rollover = excluded.rollover,
			priority = excluded.priority,
			active = excluded.active
	`,
		budget.ID,
		budget.UserID,
		budget.Category,
		budget.Subcategory,
		string(budget.Period),
		budget.CapAmount,
		budget.Currency,
		budget.StartDate,
		budget.Rollover,
		budget.Priority,
		budget.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}

	return nil
}

// GetActiveBudgets returns a user's active budgets, highest priority first.
func (s *SQLiteStorage) GetActiveBudgets(ctx context.Context, userID string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, subcategory, period, cap_amount,
		       currency, start_date, rollover, priority, active, created_at
		FROM budgets
		WHERE user_id = ? AND active = 1
		ORDER BY priority DESC, category ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var budget model.Budget
		var subcategory, currency sql.NullString
		var periodKind string

		err := rows.Scan(
			&budget.ID,
			&budget.UserID,
			&budget.Category,
			&subcategory,
			&periodKind,
			&budget.CapAmount,
			&currency,
			&budget.StartDate,
			&budget.Rollover,
			&budget.Priority,
			&budget.Active,
			&budget.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}

		budget.Period = model.PeriodKind(periodKind)
		budget.Currency = currency.String
		if subcategory.Valid {
			budget.Subcategory = &subcategory.String
		}

		budgets = append(budgets, budget)
	}

	return budgets, rows.Err()
}
