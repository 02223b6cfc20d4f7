package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
)

// TransactionExists reports whether a row already exists for the external
// transaction id. The sync orchestrator uses this before upserting so it
// can report insert-vs-update counts, which the upsert itself does not.
func (s *SQLiteStorage) TransactionExists(ctx context.Context, plaidTransactionID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(plaidTransactionID, "plaidTransactionID"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM transactions WHERE plaid_transaction_id = ?)
	`, plaidTransactionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}

	return exists, nil
}

// UpsertTransaction inserts or updates a transaction keyed on the external
// transaction id. Identity fields (internal id, user, account) are kept
// from the original insert on update.
func (s *SQLiteStorage) UpsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("transaction cannot be nil")
	}
	if err := validateString(txn.PlaidTransactionID, "txn.PlaidTransactionID"); err != nil {
		return err
	}
	if err := validateString(txn.AccountID, "txn.AccountID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, account_id, plaid_transaction_id, amount, currency,
			posted_at, name, merchant_name, pending, category, subcategory,
			channel, hash, raw
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plaid_transaction_id) DO UPDATE SET
			amount = excluded.amount,
			currency = excluded.currency,
			posted_at = excluded.posted_at,
			name = excluded.name,
			merchant_name = excluded.merchant_name,
			pending = excluded.pending,
			category = excluded.category,
			subcategory = excluded.subcategory,
			channel = excluded.channel,
			hash = excluded.hash,
			raw = excluded.raw
	`,
		txn.ID,
		txn.UserID,
		txn.AccountID,
		txn.PlaidTransactionID,
		txn.Amount,
		txn.Currency,
		txn.PostedAt,
		txn.Name,
		txn.MerchantName,
		txn.Pending,
		txn.Category,
		txn.Subcategory,
		txn.Channel,
		txn.Hash,
		string(txn.Raw),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %s: %w", txn.PlaidTransactionID, err)
	}

	return nil
}

// DeleteTransactionsByPlaidIDs removes all rows whose external id is in the
// given set, in a single batched delete. Returns the number of rows removed.
func (s *SQLiteStorage) DeleteTransactionsByPlaidIDs(ctx context.Context, userID string, plaidTransactionIDs []string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if len(plaidTransactionIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(plaidTransactionIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(plaidTransactionIDs)+1)
	args = append(args, userID)
	for _, id := range plaidTransactionIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		DELETE FROM transactions
		WHERE user_id = ? AND plaid_transaction_id IN (%s)
	`, placeholders)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted transactions: %w", err)
	}

	return removed, nil
}

// GetTransactionByPlaidID retrieves a single transaction by external id.
func (s *SQLiteStorage) GetTransactionByPlaidID(ctx context.Context, plaidTransactionID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(plaidTransactionID, "plaidTransactionID"); err != nil {
		return nil, err
	}

	return scanTransaction(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, plaid_transaction_id, amount, currency,
		       posted_at, name, merchant_name, pending, category, subcategory,
		       channel, hash, raw, created_at
		FROM transactions
		WHERE plaid_transaction_id = ?
	`, plaidTransactionID))
}

// SumSpendingInWindow sums the absolute value of all non-pending
// transactions for a user and category inside the half-open window
// [start, end). When subcategory is non-nil the match narrows to it.
func (s *SQLiteStorage) SumSpendingInWindow(ctx context.Context, userID, category string, subcategory *string, start, end time.Time) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if err := validateString(category, "category"); err != nil {
		return 0, err
	}

	query := `
		SELECT COALESCE(SUM(ABS(amount)), 0)
		FROM transactions
		WHERE user_id = ? AND category = ? AND pending = 0
		  AND posted_at >= ? AND posted_at < ?
	`
	args := []any{userID, category, start, end}

	if subcategory != nil {
		query += " AND subcategory = ?"
		args = append(args, *subcategory)
	}

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum spending: %w", err)
	}

	return total, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var currency, merchantName, category, subcategory, channel, raw sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.AccountID,
		&txn.PlaidTransactionID,
		&txn.Amount,
		&currency,
		&txn.PostedAt,
		&txn.Name,
		&merchantName,
		&txn.Pending,
		&category,
		&subcategory,
		&channel,
		&txn.Hash,
		&raw,
		&txn.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if currency.Valid {
		txn.Currency = &currency.String
	}
	if merchantName.Valid {
		txn.MerchantName = &merchantName.String
	}
	if category.Valid {
		txn.Category = &category.String
	}
	if subcategory.Valid {
		txn.Subcategory = &subcategory.String
	}
	if channel.Valid {
		txn.Channel = &channel.String
	}
	if raw.Valid {
		txn.Raw = []byte(raw.String)
	}

	return &txn, nil
}
