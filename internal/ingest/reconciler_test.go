package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDelta_NoBaselineIsNoOp(t *testing.T) {
	store := testutil.NewTestDB(t)
	_, account := seedItemAndAccount(t, store, "user1", "plaid-acct-1")

	reconciler := NewReconciler(store)
	err := reconciler.ApplyDelta(context.Background(), &model.Transaction{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Amount:    25,
	})
	require.NoError(t, err, "missing baseline is a no-op, not an error")

	_, err = store.GetLatestBalanceSnapshot(context.Background(), account.ID)
	assert.Error(t, err, "no snapshot should have been written")
}

func TestApplyDelta_SubtractsAbsoluteAmount(t *testing.T) {
	store := testutil.NewTestDB(t)
	_, account := seedItemAndAccount(t, store, "user1", "plaid-acct-1")
	ctx := context.Background()

	baseline := &model.BalanceSnapshot{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Current:   decimal.NewFromFloat(500),
		Available: decimal.NewFromFloat(450),
		Currency:  "USD",
		AsOf:      time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveBalanceSnapshot(ctx, baseline))

	reconciler := NewReconciler(store)
	asOf := baseline.AsOf.Add(time.Hour)
	reconciler.now = func() time.Time { return asOf }

	// Stored amounts are already-signed magnitudes: even a negative amount
	// subtracts its absolute value.
	err := reconciler.ApplyDelta(ctx, &model.Transaction{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Amount:    -20,
	})
	require.NoError(t, err)

	latest, err := store.GetLatestBalanceSnapshot(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, latest.Current.Equal(decimal.NewFromFloat(480)), "got %s", latest.Current)
	assert.True(t, latest.Available.Equal(decimal.NewFromFloat(430)))
	assert.Equal(t, "USD", latest.Currency, "currency carries over from the baseline")
	assert.True(t, latest.AsOf.Equal(asOf))
}
