package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
)

// SaveLinkedItem inserts or replaces a linked item row.
func (s *SQLiteStorage) SaveLinkedItem(ctx context.Context, item *model.LinkedItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if err := validateString(item.ID, "item.ID"); err != nil {
		return err
	}
	if err := validateString(item.UserID, "item.UserID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plaid_items (
			id, user_id, plaid_item_id, access_token, cursor,
			status, error_code, error_message, updated_at
		) VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
		ON CONFLICT(plaid_item_id) DO UPDATE SET
			access_token = excluded.access_token,
			cursor = excluded.cursor,
			status = excluded.status,
			error_code = excluded.error_code,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`,
		item.ID,
		item.UserID,
		item.PlaidItemID,
		item.AccessToken,
		item.Cursor,
		string(item.Status),
		item.ErrorCode,
		item.ErrorMessage,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save linked item: %w", err)
	}

	return nil
}

// GetLinkedItem retrieves one linked item scoped to its owning user.
func (s *SQLiteStorage) GetLinkedItem(ctx context.Context, userID, itemID string) (*model.LinkedItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, plaid_item_id, access_token, cursor,
		       status, error_code, error_message, created_at, updated_at
		FROM plaid_items
		WHERE user_id = ? AND id = ?
	`, userID, itemID)

	return scanLinkedItem(row)
}

// ListLinkedItems returns all of a user's linked items.
func (s *SQLiteStorage) ListLinkedItems(ctx context.Context, userID string) ([]model.LinkedItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, plaid_item_id, access_token, cursor,
		       status, error_code, error_message, created_at, updated_at
		FROM plaid_items
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.LinkedItem
	for rows.Next() {
		item, err := scanLinkedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// UpdateItemCursor persists the pagination cursor for an item. The sync
// orchestrator calls this only after a page-set fully drains.
func (s *SQLiteStorage) UpdateItemCursor(ctx context.Context, itemID, cursor string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE plaid_items
		SET cursor = NULLIF(?, ''), updated_at = ?
		WHERE id = ?
	`, cursor, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cursor update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// UpdateItemStatus flips an item's health status, recording the provider's
// error code and message when present.
func (s *SQLiteStorage) UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus, errorCode, errorMessage *string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE plaid_items
		SET status = ?, error_code = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`, string(status), errorCode, errorMessage, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLinkedItem(row rowScanner) (*model.LinkedItem, error) {
	var item model.LinkedItem
	var cursor, errorCode, errorMessage sql.NullString
	var status string

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.PlaidItemID,
		&item.AccessToken,
		&cursor,
		&status,
		&errorCode,
		&errorMessage,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan linked item: %w", err)
	}

	item.Status = model.ItemStatus(status)
	if cursor.Valid {
		item.Cursor = cursor.String
	}
	if errorCode.Valid {
		item.ErrorCode = &errorCode.String
	}
	if errorMessage.Valid {
		item.ErrorMessage = &errorMessage.String
	}

	return &item, nil
}
