package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func seedItem(t *testing.T, store *SQLiteStorage, userID string) *model.LinkedItem {
	t.Helper()

	item := &model.LinkedItem{
		ID:          uuid.New().String(),
		UserID:      userID,
		PlaidItemID: "plaid-item-" + uuid.New().String(),
		AccessToken: "encrypted-token",
		Status:      model.ItemStatusActive,
	}
	require.NoError(t, store.SaveLinkedItem(context.Background(), item))

	return item
}

func seedAccount(t *testing.T, store *SQLiteStorage, item *model.LinkedItem) *model.Account {
	t.Helper()

	account := &model.Account{
		ID:             uuid.New().String(),
		UserID:         item.UserID,
		ItemID:         item.ID,
		PlaidAccountID: "plaid-acct-" + uuid.New().String(),
		Name:           "Test Checking",
		Type:           "depository",
		Subtype:        "checking",
		Mask:           "4321",
		Currency:       "USD",
	}
	require.NoError(t, store.SaveAccount(context.Background(), account))

	return account
}

func makeTransaction(userID, accountID, plaidTxnID string, amount float64, postedAt time.Time, category string) *model.Transaction {
	currency := "USD"
	txn := &model.Transaction{
		ID:                 uuid.New().String(),
		UserID:             userID,
		AccountID:          accountID,
		PlaidTransactionID: plaidTxnID,
		Amount:             amount,
		Currency:           &currency,
		PostedAt:           postedAt,
		Name:               "TEST MERCHANT",
		Hash:               "hash-" + plaidTxnID,
		Raw:                []byte(`{"test":true}`),
	}
	if category != "" {
		txn.Category = &category
	}
	return txn
}
