package plaid

import (
	"context"
	"testing"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid sandbox config",
			config: Config{
				ClientID:    "client123",
				Secret:      "secret456",
				Environment: "sandbox",
			},
			wantErr: false,
		},
		{
			name: "valid production config",
			config: Config{
				ClientID:    "client123",
				Secret:      "secret456",
				Environment: "production",
			},
			wantErr: false,
		},
		{
			name: "missing client ID",
			config: Config{
				Secret:      "secret456",
				Environment: "sandbox",
			},
			wantErr: true,
		},
		{
			name: "missing secret",
			config: Config{
				ClientID:    "client123",
				Environment: "sandbox",
			},
			wantErr: true,
		},
		{
			name: "invalid environment",
			config: Config{
				ClientID:    "client123",
				Secret:      "secret456",
				Environment: "development",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClient_FetchPage_RequiresToken(t *testing.T) {
	client, err := NewClient(Config{
		ClientID:    "client123",
		Secret:      "secret456",
		Environment: "sandbox",
	})
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background(), "", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)

	_, err = client.GetAccounts(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestMockSource_Defaults(t *testing.T) {
	mock := NewMockSource()

	page, err := mock.FetchPage(context.Background(), "token", "cursor")
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Added)

	require.Len(t, mock.FetchPageCalls, 1)
	assert.Equal(t, "cursor", mock.FetchPageCalls[0].Cursor)

	mock.Reset()
	assert.Empty(t, mock.FetchPageCalls)
}
