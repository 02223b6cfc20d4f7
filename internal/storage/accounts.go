package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
)

// SaveAccount inserts an account. Identity fields are immutable after
// creation, so a re-link only refreshes display metadata.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account cannot be nil")
	}
	if err := validateString(account.ID, "account.ID"); err != nil {
		return err
	}
	if err := validateString(account.PlaidAccountID, "account.PlaidAccountID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, user_id, item_id, plaid_account_id, name,
			official_name, type, subtype, mask, currency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plaid_account_id) DO UPDATE SET
			name = excluded.name,
			official_name = excluded.official_name,
			mask = excluded.mask
	`,
		account.ID,
		account.UserID,
		account.ItemID,
		account.PlaidAccountID,
		account.Name,
		account.OfficialName,
		account.Type,
		account.Subtype,
		account.Mask,
		account.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}

// GetAccountByPlaidID resolves an external account identifier to the
// internal account record. A miss returns common.ErrNotFound; callers in
// the sync path treat that as "skip this record", not a failure.
func (s *SQLiteStorage) GetAccountByPlaidID(ctx context.Context, plaidAccountID string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(plaidAccountID, "plaidAccountID"); err != nil {
		return nil, err
	}

	return scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, item_id, plaid_account_id, name,
		       official_name, type, subtype, mask, currency, created_at
		FROM accounts
		WHERE plaid_account_id = ?
	`, plaidAccountID))
}

// ListAccounts returns all of a user's accounts.
func (s *SQLiteStorage) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, plaid_account_id, name,
		       official_name, type, subtype, mask, currency, created_at
		FROM accounts
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	return accounts, rows.Err()
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var account model.Account
	var officialName, accountType, subtype, mask, currency sql.NullString

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.ItemID,
		&account.PlaidAccountID,
		&account.Name,
		&officialName,
		&accountType,
		&subtype,
		&mask,
		&currency,
		&account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account.OfficialName = officialName.String
	account.Type = accountType.String
	account.Subtype = subtype.String
	account.Mask = mask.String
	account.Currency = currency.String

	return &account, nil
}
