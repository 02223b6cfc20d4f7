package model

import "time"

// Account is one financial account under a linked item. Identity fields are
// immutable after creation; transactions join against the internal ID.
type Account struct {
	CreatedAt      time.Time
	ID             string
	UserID         string
	ItemID         string
	PlaidAccountID string
	Name           string
	OfficialName   string
	Type           string
	Subtype        string
	Mask           string
	Currency       string
}
