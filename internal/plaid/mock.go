package plaid

import (
	"context"

	"github.com/pocketwatch-app/pocketwatch/internal/service"
)

// MockSource is a mock implementation of TransactionSource for testing.
type MockSource struct {
	// Functions that can be set by tests to control behavior
	FetchPageFn   func(ctx context.Context, accessToken, cursor string) (*service.SyncPage, error)
	GetAccountsFn func(ctx context.Context, accessToken string) ([]service.SourceAccount, error)

	// Call tracking
	FetchPageCalls   []FetchPageCall
	GetAccountsCalls int
}

// FetchPageCall records the parameters of a FetchPage call.
type FetchPageCall struct {
	AccessToken string
	Cursor      string
}

// NewMockSource creates a new mock transaction source.
func NewMockSource() *MockSource {
	return &MockSource{
		FetchPageCalls: []FetchPageCall{},
	}
}

// FetchPage implements TransactionSource.FetchPage.
func (m *MockSource) FetchPage(ctx context.Context, accessToken, cursor string) (*service.SyncPage, error) {
	m.FetchPageCalls = append(m.FetchPageCalls, FetchPageCall{
		AccessToken: accessToken,
		Cursor:      cursor,
	})

	if m.FetchPageFn != nil {
		return m.FetchPageFn(ctx, accessToken, cursor)
	}

	// Default behavior: a single empty, final page
	return &service.SyncPage{HasMore: false}, nil
}

// GetAccounts implements TransactionSource.GetAccounts.
func (m *MockSource) GetAccounts(ctx context.Context, accessToken string) ([]service.SourceAccount, error) {
	m.GetAccountsCalls++

	if m.GetAccountsFn != nil {
		return m.GetAccountsFn(ctx, accessToken)
	}

	return []service.SourceAccount{}, nil
}

// Reset clears all call tracking.
func (m *MockSource) Reset() {
	m.FetchPageCalls = []FetchPageCall{}
	m.GetAccountsCalls = 0
}

// Ensure MockSource implements TransactionSource interface.
var _ service.TransactionSource = (*MockSource)(nil)
