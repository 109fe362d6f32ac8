// Package maintenance computes the daily maintenance window during which
// the nightly finance sync makes the database unsafe to query.
//
// The window is evaluated in a fixed civil timezone, never in server-local
// time: the deploy region must not move the window. Evaluation is a pure
// function of the injected clock and is safe for unrestricted concurrent
// use, so the HTTP gate consults it on every request.
package maintenance

import (
	"fmt"
	"time"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

// Window boundaries, minutes since midnight in windowTimezone.
// The interval is half-open: in maintenance at 13:00, out again at 14:30.
const (
	windowStartMinute = 13*60 + 0  // 13:00
	windowEndMinute   = 14*60 + 30 // 14:30

	windowTimezone = "America/Sao_Paulo"
)

const blockedMessage = "Sistema em manutenção programada. A sincronização diária de dados está em andamento."

// Evaluator answers "are we inside the maintenance window right now".
type Evaluator struct {
	loc  *time.Location
	now  func() time.Time
	skip bool
}

// Option customizes an Evaluator. Used by tests to pin the clock.
type Option func(*Evaluator)

// WithClock injects the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates the evaluator. skip is the SKIP_MAINTENANCE_WINDOW
// escape hatch: when true the window never activates, for tests and for
// operating outside the nightly sync schedule.
func NewEvaluator(skip bool, opts ...Option) *Evaluator {
	loc, err := time.LoadLocation(windowTimezone)
	if err != nil {
		// The IANA name is a compile-time constant; a failed load means a
		// broken tzdata install. Fall back to UTC rather than panicking on
		// every request.
		loc = time.UTC
	}
	e := &Evaluator{loc: loc, now: time.Now, skip: skip}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InWindow reports whether the current civil time falls inside
// [13:00, 14:30) in America/Sao_Paulo. Never errors.
func (e *Evaluator) InWindow() bool {
	if e.skip {
		return false
	}
	local := e.now().In(e.loc)
	minute := local.Hour()*60 + local.Minute()
	return minute >= windowStartMinute && minute < windowEndMinute
}

// Status returns the full maintenance status for the current instant.
// ResumesAt and RemainingMinutes are populated only inside the window.
func (e *Evaluator) Status() domain.MaintenanceStatus {
	status := domain.MaintenanceStatus{
		WindowStart: formatMinute(windowStartMinute),
		WindowEnd:   formatMinute(windowEndMinute),
		Message:     "Sistema operando normalmente.",
	}

	if !e.InWindow() {
		return status
	}

	local := e.now().In(e.loc)
	resumesAt := time.Date(local.Year(), local.Month(), local.Day(),
		windowEndMinute/60, windowEndMinute%60, 0, 0, e.loc)
	// Ceiling so 14:29:30 still reports one remaining minute.
	remaining := int((resumesAt.Sub(local) + time.Minute - 1) / time.Minute)

	status.IsInMaintenance = true
	status.Message = blockedMessage
	status.ResumesAt = &resumesAt
	status.RemainingMinutes = &remaining
	return status
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
