package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/model"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
)

// criticalOverageFraction is the overspend fraction above which an alert
// escalates from warning to critical.
const criticalOverageFraction = 0.25

// Trigger raises budget-exceeded alerts from summaries. Deduplication is
// two-layered: a pre-check avoids the common case, and the storage layer's
// partial unique index catches the race, surfacing ErrDuplicateEntry.
type Trigger struct {
	storage service.Storage
	logger  *slog.Logger
}

// NewTrigger creates an alert trigger.
func NewTrigger(storage service.Storage) *Trigger {
	return &Trigger{
		storage: storage,
		logger:  slog.Default().With("component", "alerts"),
	}
}

// TriggerAlerts creates one active alert per exceeded budget category that
// does not already have one. Returns the alerts actually created.
func (t *Trigger) TriggerAlerts(ctx context.Context, userID string, summaries []service.BudgetSummary) ([]model.Alert, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	var created []model.Alert
	for _, summary := range summaries {
		if !summary.Exceeded {
			continue
		}

		exists, err := t.storage.HasActiveAlert(ctx, userID, summary.Category)
		if err != nil {
			return created, fmt.Errorf("failed to check active alert: %w", err)
		}
		if exists {
			continue
		}

		alert := model.Alert{
			ID:       uuid.New().String(),
			UserID:   userID,
			Type:     model.AlertTypeBudgetExceeded,
			Severity: severityFor(summary),
			Category: summary.Category,
			Status:   model.AlertStatusActive,
			Reason: fmt.Sprintf("spent %.2f of %.2f budget for %s",
				summary.Spent, summary.Cap, summary.Category),
		}

		err = t.storage.CreateAlert(ctx, &alert)
		if errors.Is(err, common.ErrDuplicateEntry) {
			// Lost the race to a concurrent trigger; the alert exists.
			t.logger.Debug("Alert already active", "category", summary.Category)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to create alert: %w", err)
		}

		t.logger.Info("Budget exceeded alert created",
			"category", summary.Category,
			"severity", alert.Severity,
			"spent", summary.Spent,
			"cap", summary.Cap)

		created = append(created, alert)
	}

	return created, nil
}

// severityFor escalates to critical when spending runs well past the cap.
func severityFor(summary service.BudgetSummary) string {
	if summary.Cap > 0 && summary.Spent > summary.Cap*(1+criticalOverageFraction) {
		return model.AlertSeverityCritical
	}
	return model.AlertSeverityWarning
}
