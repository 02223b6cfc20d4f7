package budget

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/storage"
	"github.com/pocketwatch-app/pocketwatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSpending(t *testing.T, store *storage.SQLiteStorage, userID, category string, amount float64, postedAt time.Time, pending bool) {
	t.Helper()
	ctx := context.Background()

	item := &model.LinkedItem{
		ID:          uuid.New().String(),
		UserID:      userID,
		PlaidItemID: "plaid-item-" + uuid.New().String(),
		AccessToken: "ciphertext",
		Status:      model.ItemStatusActive,
	}
	require.NoError(t, store.SaveLinkedItem(ctx, item))

	account := &model.Account{
		ID:             uuid.New().String(),
		UserID:         userID,
		ItemID:         item.ID,
		PlaidAccountID: "plaid-acct-" + uuid.New().String(),
		Name:           "Checking",
	}
	require.NoError(t, store.SaveAccount(ctx, account))

	currency := "USD"
	txn := &model.Transaction{
		ID:                 uuid.New().String(),
		UserID:             userID,
		AccountID:          account.ID,
		PlaidTransactionID: "txn-" + uuid.New().String(),
		Amount:             amount,
		Currency:           &currency,
		PostedAt:           postedAt,
		Name:               "TEST",
		Pending:            pending,
		Category:           &category,
		Hash:               "hash",
	}
	require.NoError(t, store.UpsertTransaction(ctx, txn))
}

func seedBudget(t *testing.T, store *storage.SQLiteStorage, userID, category string, cap float64, anchor time.Time) *model.Budget {
	t.Helper()

	budget := &model.Budget{
		ID:        uuid.New().String(),
		UserID:    userID,
		Category:  category,
		Period:    model.PeriodMonth,
		CapAmount: cap,
		StartDate: anchor,
		Active:    true,
	}
	require.NoError(t, store.SaveBudget(context.Background(), budget))

	return budget
}

func TestSummarize(t *testing.T) {
	store := testutil.NewTestDB(t)

	anchor := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)

	seedBudget(t, store, "user1", "Food and Drink", 100, anchor)
	seedSpending(t, store, "user1", "Food and Drink", 40, anchor.AddDate(0, 0, 5), false)
	seedSpending(t, store, "user1", "Food and Drink", 35, anchor.AddDate(0, 0, 10), false)
	// Pending spend never counts.
	seedSpending(t, store, "user1", "Food and Drink", 500, anchor.AddDate(0, 0, 11), true)
	// Spend before the window is invisible.
	seedSpending(t, store, "user1", "Food and Drink", 500, anchor.AddDate(0, 0, -3), false)

	aggregator := NewAggregator(store)
	aggregator.now = func() time.Time { return now }

	summaries, err := aggregator.Summarize(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "Food and Drink", s.Category)
	assert.InDelta(t, 75.0, s.Spent, 0.001)
	assert.InDelta(t, 25.0, s.Remaining, 0.001)
	assert.False(t, s.Exceeded)
	assert.True(t, s.Window.Contains(now))
}

func TestSummarize_ExceededAtCapBoundary(t *testing.T) {
	store := testutil.NewTestDB(t)

	anchor := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)

	seedBudget(t, store, "user1", "Food and Drink", 100, anchor)
	seedSpending(t, store, "user1", "Food and Drink", 100, anchor.AddDate(0, 0, 5), false)

	aggregator := NewAggregator(store)
	aggregator.now = func() time.Time { return now }

	summaries, err := aggregator.Summarize(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	// Spending exactly the cap is not an overage.
	assert.False(t, summaries[0].Exceeded)
	assert.Zero(t, summaries[0].Remaining)
}

func TestSummarize_NoBudgets(t *testing.T) {
	store := testutil.NewTestDB(t)

	aggregator := NewAggregator(store)
	summaries, err := aggregator.Summarize(context.Background(), "user1")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
