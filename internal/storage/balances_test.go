package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceSnapshot_LatestWins(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	base := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	older := &model.BalanceSnapshot{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Current:   decimal.NewFromFloat(1000.00),
		Available: decimal.NewFromFloat(950.00),
		Currency:  "USD",
		AsOf:      base,
	}
	newer := &model.BalanceSnapshot{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Current:   decimal.NewFromFloat(987.55),
		Available: decimal.NewFromFloat(937.55),
		Currency:  "USD",
		AsOf:      base.Add(time.Hour),
	}

	// Insert newest first to prove ordering is by as_of, not insertion.
	require.NoError(t, store.SaveBalanceSnapshot(ctx, newer))
	require.NoError(t, store.SaveBalanceSnapshot(ctx, older))

	got, err := store.GetLatestBalanceSnapshot(ctx, account.ID)
	require.NoError(t, err)

	assert.Equal(t, newer.ID, got.ID)
	assert.True(t, got.Current.Equal(decimal.NewFromFloat(987.55)),
		"got %s", got.Current)
	assert.True(t, got.Available.Equal(decimal.NewFromFloat(937.55)))
	assert.Equal(t, "USD", got.Currency)
}

func TestGetLatestBalanceSnapshot_NoHistory(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetLatestBalanceSnapshot(context.Background(), "no-such-account")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBalanceSnapshot_DecimalPrecision(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	// A value that would drift as a float64 accumulator.
	amount, err := decimal.NewFromString("0.10000000000000001")
	require.NoError(t, err)

	snapshot := &model.BalanceSnapshot{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Current:   amount,
		Available: amount,
		Currency:  "USD",
		AsOf:      time.Now().UTC(),
	}
	require.NoError(t, store.SaveBalanceSnapshot(ctx, snapshot))

	got, err := store.GetLatestBalanceSnapshot(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Current.Equal(amount), "got %s", got.Current)
}
