package model

import "time"

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

// Valid alert statuses.
const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// Alert types and severities produced by this engine.
const (
	AlertTypeBudgetExceeded = "budget_exceeded"

	AlertSeverityWarning  = "warning"
	AlertSeverityCritical = "critical"
)

// Alert is a persisted notification. At most one active budget-exceeded
// alert exists per (user, category), enforced by a partial unique index.
type Alert struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Type      string
	Severity  string
	Category  string
	Reason    string
	Status    AlertStatus
}
