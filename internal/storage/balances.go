package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/shopspring/decimal"
)

// SaveBalanceSnapshot appends a balance observation. Snapshots are
// append-only; amounts are stored as decimal strings to avoid float drift
// across long subtraction chains.
func (s *SQLiteStorage) SaveBalanceSnapshot(ctx context.Context, snapshot *model.BalanceSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if err := validateString(snapshot.ID, "snapshot.ID"); err != nil {
		return err
	}
	if err := validateString(snapshot.AccountID, "snapshot.AccountID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balance_snapshots (id, account_id, current, available, currency, as_of)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		snapshot.ID,
		snapshot.AccountID,
		snapshot.Current.String(),
		snapshot.Available.String(),
		snapshot.Currency,
		snapshot.AsOf,
	)
	if err != nil {
		return fmt.Errorf("failed to save balance snapshot: %w", err)
	}

	return nil
}

// GetLatestBalanceSnapshot returns the most recent snapshot for an
// account, which by definition is the account's current balance. An
// account with no snapshots yet returns common.ErrNotFound.
func (s *SQLiteStorage) GetLatestBalanceSnapshot(ctx context.Context, accountID string) (*model.BalanceSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	var snapshot model.BalanceSnapshot
	var current, available string
	var currency sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, current, available, currency, as_of
		FROM balance_snapshots
		WHERE account_id = ?
		ORDER BY as_of DESC
		LIMIT 1
	`, accountID).Scan(
		&snapshot.ID,
		&snapshot.AccountID,
		&current,
		&available,
		&currency,
		&snapshot.AsOf,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest balance snapshot: %w", err)
	}

	snapshot.Current, err = decimal.NewFromString(current)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current balance: %w", err)
	}
	snapshot.Available, err = decimal.NewFromString(available)
	if err != nil {
		return nil, fmt.Errorf("failed to parse available balance: %w", err)
	}
	snapshot.Currency = currency.String

	return &snapshot, nil
}
