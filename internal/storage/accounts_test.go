package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	got, err := store.GetAccountByPlaidID(ctx, account.PlaidAccountID)
	require.NoError(t, err)

	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, item.ID, got.ItemID)
	assert.Equal(t, "Test Checking", got.Name)
	assert.Equal(t, "checking", got.Subtype)
}

func TestGetAccountByPlaidID_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetAccountByPlaidID(context.Background(), "unknown-account")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveAccount_RelinkKeepsIdentity(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	account := seedAccount(t, store, item)

	// Re-linking ingests the same provider account under a new internal id;
	// the original row survives with refreshed display fields.
	relinked := &model.Account{
		ID:             uuid.New().String(),
		UserID:         "user1",
		ItemID:         item.ID,
		PlaidAccountID: account.PlaidAccountID,
		Name:           "Renamed Checking",
		Type:           "depository",
		Subtype:        "checking",
		Mask:           "4321",
		Currency:       "USD",
	}
	require.NoError(t, store.SaveAccount(ctx, relinked))

	got, err := store.GetAccountByPlaidID(ctx, account.PlaidAccountID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID, "internal id is stable across re-link")
	assert.Equal(t, "Renamed Checking", got.Name)
}

func TestListAccounts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := seedItem(t, store, "user1")
	seedAccount(t, store, item)
	seedAccount(t, store, item)

	other := seedItem(t, store, "user2")
	seedAccount(t, store, other)

	accounts, err := store.ListAccounts(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
