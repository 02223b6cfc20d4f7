package ingest

import (
	"context"
	"testing"

	"github.com/pocketwatch-app/pocketwatch/internal/plaid"
	"github.com/pocketwatch-app/pocketwatch/internal/secrets"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
	"github.com/pocketwatch-app/pocketwatch/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkItem_IngestsAccountsAndBaselines(t *testing.T) {
	store := testutil.NewTestDB(t)
	ctx := context.Background()

	cipher, err := secrets.NewCipher(testPassphrase)
	require.NoError(t, err)

	source := plaid.NewMockSource()
	source.GetAccountsFn = func(_ context.Context, accessToken string) ([]service.SourceAccount, error) {
		assert.Equal(t, "plain-token", accessToken)
		return []service.SourceAccount{
			{
				PlaidAccountID:   "plaid-acct-1",
				Name:             "Everyday Checking",
				Type:             "depository",
				Subtype:          "checking",
				Mask:             "1234",
				Currency:         "USD",
				CurrentBalance:   1500.25,
				AvailableBalance: 1400.00,
			},
			{
				PlaidAccountID:   "plaid-acct-2",
				Name:             "Rainy Day Savings",
				Type:             "depository",
				Subtype:          "savings",
				Mask:             "5678",
				Currency:         "USD",
				CurrentBalance:   8000,
				AvailableBalance: 8000,
			},
		}, nil
	}

	linker := NewLinker(store, source, cipher)
	item, err := linker.LinkItem(ctx, "user1", "plaid-item-1", "plain-token")
	require.NoError(t, err)

	// The token is stored encrypted but decrypts back to the original.
	stored, err := store.GetLinkedItem(ctx, "user1", item.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "plain-token", stored.AccessToken)
	plain, err := cipher.Decrypt(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "plain-token", plain)

	accounts, err := store.ListAccounts(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// Each account starts with its reported balance as the baseline.
	checking, err := store.GetAccountByPlaidID(ctx, "plaid-acct-1")
	require.NoError(t, err)
	snapshot, err := store.GetLatestBalanceSnapshot(ctx, checking.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.Current.Equal(decimal.NewFromFloat(1500.25)),
		"got %s", snapshot.Current)
	assert.True(t, snapshot.Available.Equal(decimal.NewFromFloat(1400.00)))
}

func TestLinkItem_RequiresToken(t *testing.T) {
	store := testutil.NewTestDB(t)

	cipher, err := secrets.NewCipher(testPassphrase)
	require.NoError(t, err)

	linker := NewLinker(store, plaid.NewMockSource(), cipher)
	_, err = linker.LinkItem(context.Background(), "user1", "plaid-item-1", "")
	assert.Error(t, err)
}
