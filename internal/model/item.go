// Package model defines the core domain types for the sync and budget engine.
package model

import "time"

// ItemStatus describes the health of a linked provider item.
type ItemStatus string

// Valid item statuses.
const (
	ItemStatusActive ItemStatus = "active"
	ItemStatusError  ItemStatus = "error"
)

// LinkedItem represents one user's connection to the transaction provider.
// A single item may cover several accounts under the same login.
//
// The access token is stored encrypted; only the sync orchestrator decrypts
// it, and only the sync orchestrator advances the cursor. An empty cursor
// means the item has never completed a full sync.
type LinkedItem struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ErrorCode    *string
	ErrorMessage *string
	ID           string
	UserID       string
	PlaidItemID  string
	AccessToken  string // ciphertext, see internal/secrets
	Cursor       string
	Status       ItemStatus
}
