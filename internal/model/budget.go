package model

import "time"

// PeriodKind selects how a budget's spending window advances from its
// anchor date.
type PeriodKind string

// Supported period kinds. Anything else falls back to calendar-month
// windows in the period calculator.
const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
)

// Budget is a per-category spending cap. StartDate anchors the phase of
// every period window; moving it retroactively shifts all window
// boundaries. The engine only reads budgets.
type Budget struct {
	StartDate   time.Time
	CreatedAt   time.Time
	Subcategory *string
	ID          string
	UserID      string
	Category    string
	Currency    string
	Period      PeriodKind
	CapAmount   float64
	Priority    int
	Rollover    bool
	Active      bool
}
