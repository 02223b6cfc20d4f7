package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
	"github.com/shopspring/decimal"
)

// Reconciler keeps account balances consistent with newly ingested
// transactions by appending adjusted snapshots.
type Reconciler struct {
	storage service.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconciler creates a reconciler backed by the given storage.
func NewReconciler(storage service.Storage) *Reconciler {
	return &Reconciler{
		storage: storage,
		logger:  slog.Default().With("component", "reconciler"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ApplyDelta adjusts an account's balance for one newly inserted
// transaction. Stored amounts are treated as already-signed magnitudes to
// subtract: both balances decrease by the absolute amount.
//
// An account with no snapshot history is a no-op: there is no baseline to
// adjust, and the linking flow records the first snapshot.
func (r *Reconciler) ApplyDelta(ctx context.Context, txn *model.Transaction) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if txn == nil {
		return fmt.Errorf("transaction cannot be nil")
	}

	latest, err := r.storage.GetLatestBalanceSnapshot(ctx, txn.AccountID)
	if errors.Is(err, common.ErrNotFound) {
		r.logger.Debug("No balance baseline for account, skipping reconciliation",
			"account_id", txn.AccountID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load balance baseline: %w", err)
	}

	delta := decimal.NewFromFloat(txn.Amount).Abs()
	snapshot := &model.BalanceSnapshot{
		ID:        uuid.New().String(),
		AccountID: txn.AccountID,
		Current:   latest.Current.Sub(delta),
		Available: latest.Available.Sub(delta),
		Currency:  latest.Currency,
		AsOf:      r.now(),
	}

	if err := r.storage.SaveBalanceSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save balance snapshot: %w", err)
	}

	r.logger.Debug("Applied balance delta",
		"account_id", txn.AccountID,
		"amount", txn.Amount,
		"current", snapshot.Current.String())

	return nil
}
