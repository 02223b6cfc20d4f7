package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
)

// Syncer drives the cursor-paginated sync loop for linked items. It is the
// only component that decrypts access tokens and the only writer of an
// item's cursor; a per-item mutex serializes concurrent syncs of the same
// item while letting different items proceed in parallel.
type Syncer struct {
	storage     service.Storage
	source      service.TransactionSource
	cipher      service.TokenCipher
	transformer *Transformer
	reconciler  *Reconciler
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSyncer creates a syncer wiring the transformer and reconciler over the
// same storage.
func NewSyncer(storage service.Storage, source service.TransactionSource, cipher service.TokenCipher) *Syncer {
	return &Syncer{
		storage:     storage,
		source:      source,
		cipher:      cipher,
		transformer: NewTransformer(storage),
		reconciler:  NewReconciler(storage),
		logger:      slog.Default().With("component", "syncer"),
		locks:       make(map[string]*sync.Mutex),
	}
}

// itemLock returns the mutex for an item, creating it on first use.
func (s *Syncer) itemLock(itemID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[itemID] = lock
	}
	return lock
}

// Sync runs one full sync pass for an item: it pages through the provider
// feed from the stored cursor, applies adds, modifications, and removals,
// and persists the new cursor only after the final page. A failure mid-feed
// leaves the old cursor in place, so the next sync replays the feed from
// the last completed pass; upserts make the replay harmless.
//
// The whole read-cursor, paginate, persist-cursor cycle runs under the
// item's mutex. A sync that waits on the lock reads the cursor its
// predecessor persisted rather than replaying the feed from a stale one.
func (s *Syncer) Sync(ctx context.Context, userID, itemID string) (*service.SyncResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	lock := s.itemLock(itemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := s.storage.GetLinkedItem(ctx, userID, itemID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrItemNotLinked, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load linked item: %w", err)
	}

	accessToken, err := s.cipher.Decrypt(item.AccessToken)
	if err != nil {
		// A token we cannot decrypt is unrecoverable without a re-link.
		s.markItemError(ctx, itemID, "TOKEN_DECRYPT_FAILED", err.Error())
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	result := &service.SyncResult{}
	cursor := item.Cursor

	for {
		page, err := s.source.FetchPage(ctx, accessToken, cursor)
		if err != nil {
			s.recordProviderFailure(ctx, itemID, err)
			return result, fmt.Errorf("failed to fetch sync page: %w", err)
		}

		// Individual record failures skip, not abort: one bad record
		// must not wedge the whole feed.
		for _, src := range append(page.Added, page.Modified...) {
			if err := s.applyUpsert(ctx, userID, src, result); err != nil {
				s.logger.Error("Failed to apply transaction",
					"transaction_id", src.ID,
					"error", err)
				result.Skipped++
			}
		}

		if len(page.Removed) > 0 {
			deleted, err := s.storage.DeleteTransactionsByPlaidIDs(ctx, userID, page.Removed)
			if err != nil {
				return result, fmt.Errorf("failed to delete removed transactions: %w", err)
			}
			result.Removed += int(deleted)
		}

		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	if err := s.storage.UpdateItemCursor(ctx, itemID, cursor); err != nil {
		return result, fmt.Errorf("failed to persist cursor: %w", err)
	}
	if err := s.storage.UpdateItemStatus(ctx, itemID, model.ItemStatusActive, nil, nil); err != nil {
		return result, fmt.Errorf("failed to mark item active: %w", err)
	}

	s.logger.Info("Sync completed",
		"item_id", itemID,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"skipped", result.Skipped)

	return result, nil
}

// applyUpsert transforms and stores one feed record, updating counts. The
// exists pre-check decides added versus updated; the upsert itself is the
// concurrency-safe write. Balance reconciliation runs only for genuinely
// new rows and is best-effort.
func (s *Syncer) applyUpsert(ctx context.Context, userID string, src model.SourceTransaction, result *service.SyncResult) error {
	txn, err := s.transformer.Transform(ctx, userID, src)
	if err != nil {
		return fmt.Errorf("failed to transform transaction %s: %w", src.ID, err)
	}
	if txn == nil {
		result.Skipped++
		return nil
	}

	exists, err := s.storage.TransactionExists(ctx, txn.PlaidTransactionID)
	if err != nil {
		return fmt.Errorf("failed to check transaction existence: %w", err)
	}

	if err := s.storage.UpsertTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to upsert transaction %s: %w", txn.PlaidTransactionID, err)
	}

	if exists {
		result.Updated++
		return nil
	}
	result.Added++

	if err := s.reconciler.ApplyDelta(ctx, txn); err != nil {
		s.logger.Error("Balance reconciliation failed",
			"transaction_id", txn.PlaidTransactionID,
			"error", err)
	}

	return nil
}

// SyncAll syncs every linked item for a user concurrently. All items run to
// completion regardless of individual failures; each item's outcome is
// reported separately.
func (s *Syncer) SyncAll(ctx context.Context, userID string) ([]service.ItemSyncResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	items, err := s.storage.ListLinkedItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked items: %w", err)
	}

	results := make([]service.ItemSyncResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, itemID string) {
			defer wg.Done()
			result, err := s.Sync(ctx, userID, itemID)
			results[i] = service.ItemSyncResult{
				ItemID: itemID,
				Result: result,
				Err:    err,
			}
		}(i, item.ID)
	}

	wg.Wait()
	return results, nil
}

// recordProviderFailure marks an item errored when the failure carries a
// provider error code. Transient and retryable failures leave the status
// alone so a temporary outage doesn't demand a re-link.
func (s *Syncer) recordProviderFailure(ctx context.Context, itemID string, err error) {
	if common.IsRetryable(err) {
		return
	}
	var provErr *common.ProviderError
	if !errors.As(err, &provErr) {
		return
	}
	s.markItemError(ctx, itemID, provErr.Code, provErr.Message)
}

func (s *Syncer) markItemError(ctx context.Context, itemID, code, message string) {
	if err := s.storage.UpdateItemStatus(ctx, itemID, model.ItemStatusError, &code, &message); err != nil {
		s.logger.Error("Failed to record item error", "item_id", itemID, "error", err)
	}
}
