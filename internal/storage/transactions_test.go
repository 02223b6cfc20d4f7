package storage

import (
	"context"
	"testing"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertTransaction_InsertThenUpdate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	posted := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	txn := makeTransaction("user1", account.ID, "plaid-txn-1", 12.50, posted, "Food and Drink")

	exists, err := store.TransactionExists(ctx, "plaid-txn-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.UpsertTransaction(ctx, txn))

	exists, err = store.TransactionExists(ctx, "plaid-txn-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same provider id with new contents updates in place.
	updated := makeTransaction("user1", account.ID, "plaid-txn-1", 15.75, posted, "Food and Drink")
	updated.Pending = false
	updated.Name = "TEST MERCHANT FINAL"
	require.NoError(t, store.UpsertTransaction(ctx, updated))

	got, err := store.GetTransactionByPlaidID(ctx, "plaid-txn-1")
	require.NoError(t, err)
	assert.InDelta(t, 15.75, got.Amount, 0.001)
	assert.Equal(t, "TEST MERCHANT FINAL", got.Name)
	// Identity fields survive the update.
	assert.Equal(t, txn.ID, got.ID)
	assert.Equal(t, account.ID, got.AccountID)
}

func TestTransactionRoundTrip_NullableFields(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	posted := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	txn := makeTransaction("user1", account.ID, "plaid-txn-1", 12.50, posted, "")
	txn.Currency = nil
	txn.MerchantName = nil
	require.NoError(t, store.UpsertTransaction(ctx, txn))

	// Absent provider fields come back as nil, not empty strings.
	got, err := store.GetTransactionByPlaidID(ctx, "plaid-txn-1")
	require.NoError(t, err)
	assert.Nil(t, got.Currency)
	assert.Nil(t, got.MerchantName)

	merchant := "Starbucks"
	currency := "USD"
	txn.MerchantName = &merchant
	txn.Currency = &currency
	require.NoError(t, store.UpsertTransaction(ctx, txn))

	got, err = store.GetTransactionByPlaidID(ctx, "plaid-txn-1")
	require.NoError(t, err)
	require.NotNil(t, got.MerchantName)
	assert.Equal(t, "Starbucks", *got.MerchantName)
	require.NotNil(t, got.Currency)
	assert.Equal(t, "USD", *got.Currency)
}

func TestGetTransactionByPlaidID_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetTransactionByPlaidID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteTransactionsByPlaidIDs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	posted := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, store.UpsertTransaction(ctx, makeTransaction("user1", account.ID, id, 5, posted, "Food and Drink")))
	}

	// Deleting already-absent ids is not an error; only present rows count.
	removed, err := store.DeleteTransactionsByPlaidIDs(ctx, "user1", []string{"t1", "t3", "never-existed"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	exists, err := store.TransactionExists(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err = store.DeleteTransactionsByPlaidIDs(ctx, "user1", nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteTransactionsByPlaidIDs_ScopedToUser(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	posted := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertTransaction(ctx, makeTransaction("user1", account.ID, "t1", 5, posted, "Food and Drink")))

	removed, err := store.DeleteTransactionsByPlaidIDs(ctx, "other-user", []string{"t1"})
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSumSpendingInWindow(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	inWindow := makeTransaction("user1", account.ID, "t1", 20, start.AddDate(0, 0, 5), "Food and Drink")
	alsoIn := makeTransaction("user1", account.ID, "t2", 30, start.AddDate(0, 0, 10), "Food and Drink")
	refund := makeTransaction("user1", account.ID, "t3", -10, start.AddDate(0, 0, 12), "Food and Drink")
	beforeWindow := makeTransaction("user1", account.ID, "t4", 99, start.AddDate(0, 0, -1), "Food and Drink")
	atEnd := makeTransaction("user1", account.ID, "t5", 99, end, "Food and Drink")
	otherCategory := makeTransaction("user1", account.ID, "t6", 99, start.AddDate(0, 0, 5), "Travel")
	pending := makeTransaction("user1", account.ID, "t7", 99, start.AddDate(0, 0, 5), "Food and Drink")
	pending.Pending = true

	require.NoError(t, store.UpsertTransaction(ctx, inWindow))
	require.NoError(t, store.UpsertTransaction(ctx, alsoIn))
	require.NoError(t, store.UpsertTransaction(ctx, refund))
	require.NoError(t, store.UpsertTransaction(ctx, beforeWindow))
	require.NoError(t, store.UpsertTransaction(ctx, atEnd))
	require.NoError(t, store.UpsertTransaction(ctx, otherCategory))
	require.NoError(t, store.UpsertTransaction(ctx, pending))

	// 20 + 30 + |-10|; pending, out-of-window, and other categories excluded.
	total, err := store.SumSpendingInWindow(ctx, "user1", "Food and Drink", nil, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, total, 0.001)
}

func TestSumSpendingInWindow_SubcategoryFilter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	coffee := makeTransaction("user1", account.ID, "t1", 5, start.AddDate(0, 0, 1), "Food and Drink")
	coffeeSub := "Coffee Shop"
	coffee.Subcategory = &coffeeSub

	grocery := makeTransaction("user1", account.ID, "t2", 80, start.AddDate(0, 0, 2), "Food and Drink")
	grocerySub := "Groceries"
	grocery.Subcategory = &grocerySub

	require.NoError(t, store.UpsertTransaction(ctx, coffee))
	require.NoError(t, store.UpsertTransaction(ctx, grocery))

	total, err := store.SumSpendingInWindow(ctx, "user1", "Food and Drink", &coffeeSub, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, total, 0.001)

	total, err = store.SumSpendingInWindow(ctx, "user1", "Food and Drink", nil, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 85.0, total, 0.001)
}

func TestSumSpendingInWindow_NoTransactions(t *testing.T) {
	store := newTestStorage(t)

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	total, err := store.SumSpendingInWindow(context.Background(), "user1", "Food and Drink", nil, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, total)
}
