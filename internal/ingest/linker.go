package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
	"github.com/shopspring/decimal"
)

// Linker registers a new provider item: it encrypts and stores the access
// token, ingests the item's accounts, and records each account's first
// balance snapshot so later reconciliation has a baseline.
type Linker struct {
	storage service.Storage
	source  service.TransactionSource
	cipher  service.TokenCipher
	logger  *slog.Logger
	now     func() time.Time
}

// NewLinker creates a linker.
func NewLinker(storage service.Storage, source service.TransactionSource, cipher service.TokenCipher) *Linker {
	return &Linker{
		storage: storage,
		source:  source,
		cipher:  cipher,
		logger:  slog.Default().With("component", "linker"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LinkItem stores a freshly exchanged access token and ingests the item's
// accounts. The token arrives in plaintext and is never persisted that way.
func (l *Linker) LinkItem(ctx context.Context, userID, plaidItemID, accessToken string) (*model.LinkedItem, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("accessToken cannot be empty")
	}

	ciphertext, err := l.cipher.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	item := &model.LinkedItem{
		ID:          uuid.New().String(),
		UserID:      userID,
		PlaidItemID: plaidItemID,
		AccessToken: ciphertext,
		Status:      model.ItemStatusActive,
	}
	if err := l.storage.SaveLinkedItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save linked item: %w", err)
	}

	accounts, err := l.source.GetAccounts(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	for _, src := range accounts {
		account := &model.Account{
			ID:             uuid.New().String(),
			UserID:         userID,
			ItemID:         item.ID,
			PlaidAccountID: src.PlaidAccountID,
			Name:           src.Name,
			OfficialName:   src.OfficialName,
			Type:           src.Type,
			Subtype:        src.Subtype,
			Mask:           src.Mask,
			Currency:       src.Currency,
		}
		if err := l.storage.SaveAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to save account %s: %w", src.PlaidAccountID, err)
		}

		// SaveAccount upserts on the provider account id; re-resolve so
		// the snapshot attaches to the surviving row on re-link.
		stored, err := l.storage.GetAccountByPlaidID(ctx, src.PlaidAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve account %s: %w", src.PlaidAccountID, err)
		}

		snapshot := &model.BalanceSnapshot{
			ID:        uuid.New().String(),
			AccountID: stored.ID,
			Current:   decimal.NewFromFloat(src.CurrentBalance),
			Available: decimal.NewFromFloat(src.AvailableBalance),
			Currency:  src.Currency,
			AsOf:      l.now(),
		}
		if err := l.storage.SaveBalanceSnapshot(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("failed to save initial balance for %s: %w", src.PlaidAccountID, err)
		}
	}

	l.logger.Info("Linked item",
		"item_id", item.ID,
		"accounts", len(accounts))

	return item, nil
}
