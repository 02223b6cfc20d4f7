package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
)

// CreateAlert inserts an alert. A unique-constraint violation on the
// one-active-per-category index is reported as common.ErrDuplicateEntry so
// concurrent triggers can treat the race as "alert already exists".
func (s *SQLiteStorage) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if alert == nil {
		return fmt.Errorf("alert cannot be nil")
	}
	if err := validateString(alert.ID, "alert.ID"); err != nil {
		return err
	}
	if err := validateString(alert.Category, "alert.Category"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, user_id, type, severity, category, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		alert.ID,
		alert.UserID,
		alert.Type,
		alert.Severity,
		alert.Category,
		string(alert.Status),
		alert.Reason,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: active alert for category %q", common.ErrDuplicateEntry, alert.Category)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// HasActiveAlert reports whether an active alert exists for the
// (user, category) pair.
func (s *SQLiteStorage) HasActiveAlert(ctx context.Context, userID, category string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return false, err
	}
	if err := validateString(category, "category"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM alerts
			WHERE user_id = ? AND category = ? AND status = 'active'
		)
	`, userID, category).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active alert: %w", err)
	}

	return exists, nil
}

// ListActiveAlerts returns a user's active alerts, newest first.
func (s *SQLiteStorage) ListActiveAlerts(ctx context.Context, userID string) ([]model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, severity, category, status, reason, created_at
		FROM alerts
		WHERE user_id = ? AND status = 'active'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		var alert model.Alert
		var status string

		err := rows.Scan(
			&alert.ID,
			&alert.UserID,
			&alert.Type,
			&alert.Severity,
			&alert.Category,
			&status,
			&alert.Reason,
			&alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		alert.Status = model.AlertStatus(status)
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
