package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction is a stored transaction row. Amounts follow the provider's
// sign convention: positive is money out (expense), negative is money in.
// At most one row exists per PlaidTransactionID, enforced by an upsert
// conflict key rather than a read-before-write.
type Transaction struct {
	PostedAt           time.Time
	CreatedAt          time.Time
	Category           *string
	Subcategory        *string
	Channel            *string
	MerchantName       *string
	Currency           *string
	ID                 string
	UserID             string
	AccountID          string
	PlaidTransactionID string
	Name               string
	Hash               string
	Raw                []byte
	Amount             float64
	Pending            bool
}

// SourceTransaction is one transaction record as reported by the provider,
// before account resolution. Raw holds the full provider payload and is the
// input to the content hash.
type SourceTransaction struct {
	PostedAt       time.Time
	ID             string
	AccountID      string
	Name           string
	MerchantName   string
	Currency       string
	Category       string
	Subcategory    string
	PaymentChannel string
	Raw            []byte
	Amount         float64
	Pending        bool
}

// ContentHash computes a stable hash over the full provider payload. It is
// used for change detection and audit, not as the uniqueness key.
func (t *SourceTransaction) ContentHash() string {
	hash := sha256.Sum256(t.Raw)
	return fmt.Sprintf("%x", hash)
}
