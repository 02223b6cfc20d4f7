// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
)

// pageSize is Plaid's maximum count for /transactions/sync.
const pageSize = int32(500)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
	}

	return nil
}

// Client implements the TransactionSource interface over Plaid's
// /transactions/sync feed.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   *service.RetryOptions
	environment string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: &service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// FetchPage fetches one page of the transaction sync feed. An empty cursor
// requests a full initial sync.
func (c *Client) FetchPage(ctx context.Context, accessToken, cursor string) (*service.SyncPage, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if accessToken == "" {
		return nil, common.ErrInvalidCredential
	}

	var page *service.SyncPage

	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewTransactionsSyncRequest(accessToken)
		if cursor != "" {
			request.SetCursor(cursor)
		}
		request.SetCount(pageSize)

		resp, _, err := c.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
		if err != nil {
			if plaidError := extractPlaidError(err); plaidError != nil {
				if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
					c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
					return &common.RetryableError{
						Err:       fmt.Errorf("%w: %s", common.ErrProviderRateLimit, plaidError.ErrorMessage),
						Retryable: true,
					}
				}
				return &common.ProviderError{Code: plaidError.ErrorCode, Message: plaidError.ErrorMessage}
			}
			return fmt.Errorf("%w: %v", common.ErrProviderConnection, err)
		}

		added := make([]model.SourceTransaction, 0, len(resp.GetAdded()))
		for _, pt := range resp.GetAdded() {
			added = append(added, c.mapTransaction(pt))
		}

		modified := make([]model.SourceTransaction, 0, len(resp.GetModified()))
		for _, pt := range resp.GetModified() {
			modified = append(modified, c.mapTransaction(pt))
		}

		removed := make([]string, 0, len(resp.GetRemoved()))
		for _, rt := range resp.GetRemoved() {
			removed = append(removed, rt.GetTransactionId())
		}

		page = &service.SyncPage{
			Added:      added,
			Modified:   modified,
			Removed:    removed,
			NextCursor: resp.GetNextCursor(),
			HasMore:    resp.GetHasMore(),
		}

		c.logger.Debug("Fetched sync page",
			"added", len(added),
			"modified", len(modified),
			"removed", len(removed),
			"has_more", page.HasMore)

		return nil
	}, *c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	return page, nil
}

// GetAccounts fetches the accounts under an item, including their reported
// balances, for the linking flow.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]service.SourceAccount, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if accessToken == "" {
		return nil, common.ErrInvalidCredential
	}

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			if plaidError := extractPlaidError(err); plaidError != nil {
				if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
					c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
					return &common.RetryableError{
						Err:       fmt.Errorf("%w: %s", common.ErrProviderRateLimit, plaidError.ErrorMessage),
						Retryable: true,
					}
				}
				return &common.ProviderError{Code: plaidError.ErrorCode, Message: plaidError.ErrorMessage}
			}
			return fmt.Errorf("%w: %v", common.ErrProviderConnection, err)
		}

		accounts = resp.GetAccounts()
		return nil
	}, *c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))

	result := make([]service.SourceAccount, 0, len(accounts))
	for _, account := range accounts {
		balances := account.GetBalances()
		result = append(result, service.SourceAccount{
			PlaidAccountID:   account.GetAccountId(),
			Name:             account.GetName(),
			OfficialName:     account.GetOfficialName(),
			Type:             string(account.GetType()),
			Subtype:          string(account.GetSubtype()),
			Mask:             account.GetMask(),
			Currency:         balances.GetIsoCurrencyCode(),
			CurrentBalance:   balances.GetCurrent(),
			AvailableBalance: balances.GetAvailable(),
		})
	}

	return result, nil
}

// mapTransaction converts a Plaid transaction to the provider-neutral
// source record. The full payload is retained for content hashing.
func (c *Client) mapTransaction(pt plaid.Transaction) model.SourceTransaction {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		date = time.Now().UTC()
	}

	var category, subcategory string
	if cats := pt.GetCategory(); len(cats) > 0 {
		category = cats[0]
		if len(cats) > 1 {
			subcategory = cats[1]
		}
	}

	raw, err := json.Marshal(pt)
	if err != nil {
		c.logger.Error("Failed to marshal transaction payload",
			"transaction_id", pt.GetTransactionId(), "error", err)
	}

	return model.SourceTransaction{
		ID:             pt.GetTransactionId(),
		AccountID:      pt.GetAccountId(),
		Amount:         pt.GetAmount(),
		Currency:       pt.GetIsoCurrencyCode(),
		PostedAt:       date,
		Name:           pt.GetName(),
		MerchantName:   pt.GetMerchantName(),
		Pending:        pt.GetPending(),
		Category:       category,
		Subcategory:    subcategory,
		PaymentChannel: pt.GetPaymentChannel(),
		Raw:            raw,
	}
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// CreateLinkToken creates a Link token for Plaid Link initialization.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: userID,
	}

	request := plaid.NewLinkTokenCreateRequest(
		"Pocketwatch",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		user,
	)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	// OAuth banks require a redirect URI in production; it must match the
	// Plaid dashboard configuration.
	if c.environment == "production" {
		request.SetRedirectUri("https://localhost:8080/")
	}

	resp, _, err := c.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		if plaidError := extractPlaidError(err); plaidError != nil {
			return "", &common.ProviderError{Code: plaidError.ErrorCode, Message: plaidError.ErrorMessage}
		}
		return "", fmt.Errorf("failed to create link token: %w", err)
	}

	return resp.GetLinkToken(), nil
}

// ExchangePublicToken exchanges a public token from Link for an access
// token and the provider's item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		if plaidError := extractPlaidError(err); plaidError != nil {
			return "", "", &common.ProviderError{Code: plaidError.ErrorCode, Message: plaidError.ErrorMessage}
		}
		return "", "", fmt.Errorf("failed to exchange public token: %w", err)
	}

	return resp.GetAccessToken(), resp.GetItemId(), nil
}

// Ensure Client implements TransactionSource interface.
var _ service.TransactionSource = (*Client)(nil)
