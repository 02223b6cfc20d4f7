// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/period"
)

// SyncPage is one page of the provider's transaction-sync feed.
type SyncPage struct {
	NextCursor string
	Added      []model.SourceTransaction
	Modified   []model.SourceTransaction
	Removed    []string
	HasMore    bool
}

// SourceAccount is one account as reported by the provider during linking.
type SourceAccount struct {
	PlaidAccountID   string
	Name             string
	OfficialName     string
	Type             string
	Subtype          string
	Mask             string
	Currency         string
	CurrentBalance   float64
	AvailableBalance float64
}

// TransactionSource is the paginated provider feed. An empty cursor
// requests a full initial sync; callers pass each page's NextCursor back
// until HasMore is false.
type TransactionSource interface {
	FetchPage(ctx context.Context, accessToken, cursor string) (*SyncPage, error)
	GetAccounts(ctx context.Context, accessToken string) ([]SourceAccount, error)
}

// TokenCipher is the opaque encrypt/decrypt boundary for access credentials.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SyncResult aggregates the outcome of one sync call.
type SyncResult struct {
	Added   int
	Updated int
	Removed int
	Skipped int
}

// ItemSyncResult pairs a fan-out sync outcome with its item.
type ItemSyncResult struct {
	Result *SyncResult
	Err    error
	ItemID string
}

// BudgetSummary reports one budget's spending against its current window.
type BudgetSummary struct {
	Window      period.Window
	Subcategory *string
	BudgetID    string
	Category    string
	Spent       float64
	Cap         float64
	Remaining   float64
	Exceeded    bool
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Linked item operations
	SaveLinkedItem(ctx context.Context, item *model.LinkedItem) error
	GetLinkedItem(ctx context.Context, userID, itemID string) (*model.LinkedItem, error)
	ListLinkedItems(ctx context.Context, userID string) ([]model.LinkedItem, error)
	UpdateItemCursor(ctx context.Context, itemID, cursor string) error
	UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus, errorCode, errorMessage *string) error

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccountByPlaidID(ctx context.Context, plaidAccountID string) (*model.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)

	// Transaction operations
	TransactionExists(ctx context.Context, plaidTransactionID string) (bool, error)
	UpsertTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransactionsByPlaidIDs(ctx context.Context, userID string, plaidTransactionIDs []string) (int64, error)
	GetTransactionByPlaidID(ctx context.Context, plaidTransactionID string) (*model.Transaction, error)
	SumSpendingInWindow(ctx context.Context, userID, category string, subcategory *string, start, end time.Time) (float64, error)

	// Balance snapshot operations
	SaveBalanceSnapshot(ctx context.Context, snapshot *model.BalanceSnapshot) error
	GetLatestBalanceSnapshot(ctx context.Context, accountID string) (*model.BalanceSnapshot, error)

	// Budget operations
	SaveBudget(ctx context.Context, budget *model.Budget) error
	GetActiveBudgets(ctx context.Context, userID string) ([]model.Budget, error)

	// Alert operations
	CreateAlert(ctx context.Context, alert *model.Alert) error
	HasActiveAlert(ctx context.Context, userID, category string) (bool, error)
	ListActiveAlerts(ctx context.Context, userID string) ([]model.Alert, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
