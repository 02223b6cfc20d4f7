// Package ingest turns the provider's transaction feed into stored rows:
// transformation, idempotent upserts, balance reconciliation, and the sync
// orchestration that drives them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
)

// Transformer maps provider transaction records onto stored transactions,
// resolving provider account ids to internal accounts.
type Transformer struct {
	storage service.Storage
	logger  *slog.Logger
}

// NewTransformer creates a transformer backed by the given storage.
func NewTransformer(storage service.Storage) *Transformer {
	return &Transformer{
		storage: storage,
		logger:  slog.Default().With("component", "transformer"),
	}
}

// Transform resolves a source transaction against the account table and
// produces the row to store. A transaction referencing an account we have
// never ingested returns (nil, nil): the record is skipped, not failed, so
// one unknown account cannot wedge the whole feed.
func (t *Transformer) Transform(ctx context.Context, userID string, src model.SourceTransaction) (*model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if src.ID == "" {
		return nil, fmt.Errorf("source transaction ID cannot be empty")
	}

	account, err := t.storage.GetAccountByPlaidID(ctx, src.AccountID)
	if errors.Is(err, common.ErrNotFound) {
		t.logger.Warn("Skipping transaction for unknown account",
			"transaction_id", src.ID,
			"account_id", src.AccountID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	txn := &model.Transaction{
		ID:                 uuid.New().String(),
		UserID:             userID,
		AccountID:          account.ID,
		PlaidTransactionID: src.ID,
		Amount:             src.Amount,
		PostedAt:           src.PostedAt.UTC(),
		Name:               src.Name,
		Pending:            src.Pending,
		Hash:               src.ContentHash(),
		Raw:                src.Raw,
	}

	// Optional fields stay NULL when the provider omits them; an absent
	// merchant is not the empty-named merchant.
	if src.Currency != "" {
		currency := src.Currency
		txn.Currency = &currency
	}
	if src.MerchantName != "" {
		merchant := src.MerchantName
		txn.MerchantName = &merchant
	}
	if src.Category != "" {
		category := src.Category
		txn.Category = &category
	}
	if src.Subcategory != "" {
		subcategory := src.Subcategory
		txn.Subcategory = &subcategory
	}
	if channel := normalizeChannel(src.PaymentChannel); channel != "" {
		txn.Channel = &channel
	}

	return txn, nil
}

// normalizeChannel maps the provider's payment channel vocabulary onto
// ours. Unknown values collapse to "other" rather than being dropped.
func normalizeChannel(channel string) string {
	switch strings.ToLower(strings.TrimSpace(channel)) {
	case "":
		return ""
	case "online":
		return "online"
	case "in store", "in_store":
		return "in_store"
	default:
		return "other"
	}
}
