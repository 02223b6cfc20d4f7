package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Core sync schema: items, accounts, transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS plaid_items (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					plaid_item_id TEXT UNIQUE NOT NULL,
					access_token TEXT NOT NULL,
					cursor TEXT,
					status TEXT NOT NULL DEFAULT 'active',
					error_code TEXT,
					error_message TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_items_user ON plaid_items(user_id)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					item_id TEXT NOT NULL,
					plaid_account_id TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL,
					official_name TEXT,
					type TEXT,
					subtype TEXT,
					mask TEXT,
					currency TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (item_id) REFERENCES plaid_items(id)
				)`,
				`CREATE INDEX idx_accounts_user ON accounts(user_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					account_id TEXT NOT NULL,
					plaid_transaction_id TEXT UNIQUE NOT NULL,
					amount REAL NOT NULL,
					currency TEXT,
					posted_at DATETIME NOT NULL,
					name TEXT NOT NULL,
					merchant_name TEXT,
					pending BOOLEAN NOT NULL DEFAULT 0,
					category TEXT,
					subcategory TEXT,
					channel TEXT,
					hash TEXT NOT NULL,
					raw TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (account_id) REFERENCES accounts(id)
				)`,
				`CREATE INDEX idx_transactions_user_posted ON transactions(user_id, posted_at)`,
				`CREATE INDEX idx_transactions_category ON transactions(category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Balance snapshots and budgets",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS balance_snapshots (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL,
					current TEXT NOT NULL,
					available TEXT NOT NULL,
					currency TEXT,
					as_of DATETIME NOT NULL,
					FOREIGN KEY (account_id) REFERENCES accounts(id)
				)`,
				`CREATE INDEX idx_balance_snapshots_account_as_of ON balance_snapshots(account_id, as_of)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					category TEXT NOT NULL,
					subcategory TEXT,
					period TEXT NOT NULL,
					cap_amount REAL NOT NULL,
					currency TEXT,
					start_date DATETIME NOT NULL,
					rollover BOOLEAN NOT NULL DEFAULT 0,
					priority INTEGER NOT NULL DEFAULT 0,
					active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_budgets_user_active ON budgets(user_id, active)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Alerts with one-active-per-category constraint",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					type TEXT NOT NULL,
					severity TEXT NOT NULL,
					category TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'active',
					reason TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				// The application-level "one active alert per category"
				// invariant becomes a real constraint here.
				`CREATE UNIQUE INDEX idx_alerts_one_active ON alerts(user_id, category) WHERE status = 'active'`,
				`CREATE INDEX idx_alerts_user_status ON alerts(user_id, status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion > ExpectedSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than expected %d", currentVersion, ExpectedSchemaVersion)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// PRAGMA cannot be parameterized
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
