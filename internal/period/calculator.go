// Package period computes budget period windows. All calendar truncation
// uses UTC; callers pass wall-clock times and get half-open UTC windows back.
package period

import (
	"math"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/model"
)

// rollingMonthDays is the fixed length of a "month" cycle. A month budget is
// a rolling 30-day window anchored at the budget's start date, not a
// calendar month.
const rollingMonthDays = 30

// Window is a half-open date range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Compute returns the window of the given kind, anchored at anchor, that
// contains reference. It is pure and deterministic.
//
// Kinds:
//   - day: the reference's calendar day.
//   - week: seven days, phase-locked to the anchor's day of week.
//   - month: a rolling 30-day cycle from the anchor. Within the first 30
//     days the window is irregular: it runs from the anchor to the end of
//     the reference day, covering only what has elapsed so far. Later
//     cycles are full 30-day windows. The asymmetry is intentional.
//     References before the anchor fall into full 30-day cycles counted
//     backwards from it.
//   - year: one calendar year, phase-locked to the anchor's month and day.
//   - anything else: the reference's true calendar month.
func Compute(anchor time.Time, kind model.PeriodKind, reference time.Time) Window {
	anchor = anchor.UTC()
	reference = reference.UTC()

	switch kind {
	case model.PeriodDay:
		start := midnight(reference)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}

	case model.PeriodWeek:
		daysBack := (int(reference.Weekday()) - int(anchor.Weekday()) + 7) % 7
		start := midnight(reference).AddDate(0, 0, -daysBack)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}

	case model.PeriodMonth:
		anchorStart := midnight(anchor)
		if reference.Before(anchorStart) {
			// A reference before the anchor still gets the containing
			// 30-day cycle, counted backwards from the anchor.
			cycle := rollingMonthDays * 24 * time.Hour
			diff := reference.Sub(anchorStart)
			periodIndex := int(diff / cycle)
			if diff%cycle != 0 {
				periodIndex--
			}
			start := anchorStart.AddDate(0, 0, periodIndex*rollingMonthDays)
			return Window{Start: start, End: start.AddDate(0, 0, rollingMonthDays)}
		}
		daysSince := int(math.Ceil(reference.Sub(anchorStart).Hours() / 24))
		if daysSince <= rollingMonthDays {
			// Irregular first cycle: anchor through the end of the
			// reference day, not a full 30 days.
			return Window{Start: anchorStart, End: midnight(reference).AddDate(0, 0, 1)}
		}
		periodIndex := int(reference.Sub(anchorStart) / (rollingMonthDays * 24 * time.Hour))
		start := anchorStart.AddDate(0, 0, periodIndex*rollingMonthDays)
		return Window{Start: start, End: start.AddDate(0, 0, rollingMonthDays)}

	case model.PeriodYear:
		year := reference.Year()
		if !onOrAfterAnniversary(reference, anchor) {
			year--
		}
		start := time.Date(year, anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
		// Calendar year add; leap days normalize per time.AddDate.
		return Window{Start: start, End: start.AddDate(1, 0, 0)}

	default:
		start := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	}
}

// onOrAfterAnniversary reports whether reference's (month, day) is on or
// after anchor's (month, day) within reference's calendar year.
func onOrAfterAnniversary(reference, anchor time.Time) bool {
	if reference.Month() != anchor.Month() {
		return reference.Month() > anchor.Month()
	}
	return reference.Day() >= anchor.Day()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
