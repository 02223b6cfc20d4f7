package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is one append-only balance observation for an account.
// Snapshots for an account are ordered by AsOf; the most recent snapshot is
// the account's current balance.
type BalanceSnapshot struct {
	AsOf      time.Time
	ID        string
	AccountID string
	Currency  string
	Current   decimal.Decimal
	Available decimal.Decimal
}
