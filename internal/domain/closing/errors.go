package closing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrPeriodNotReady rejects a close whose readiness checks failed
type ErrPeriodNotReady struct {
	Report *ReadinessReport
}

func (e ErrPeriodNotReady) Error() string {
	if e.Report == nil {
		return "period is not ready to close"
	}
	return fmt.Sprintf("period %s is not ready to close: %d draft document(s), ledger balanced: %t",
		e.Report.PeriodCode, e.Report.TotalDrafts(), e.Report.IsBalanced)
}

// Is matches any ErrPeriodNotReady
func (e ErrPeriodNotReady) Is(target error) bool {
	_, ok := target.(ErrPeriodNotReady)
	return ok
}

// Unwrap exposes the imbalance when the ledger is one of the blockers
func (e ErrPeriodNotReady) Unwrap() error {
	if e.Report == nil || e.Report.IsBalanced {
		return nil
	}
	return ErrImbalanceDetected{Delta: e.Report.Difference, Tolerance: e.Report.Tolerance}
}

// ErrPeriodCloseInProgress indicates another close or recalculation holds the period lock
type ErrPeriodCloseInProgress struct {
	PeriodID uuid.UUID
}

func (e ErrPeriodCloseInProgress) Error() string {
	return "closing already in progress for period: " + e.PeriodID.String()
}

func (e ErrPeriodCloseInProgress) Is(target error) bool {
	t, ok := target.(ErrPeriodCloseInProgress)
	if !ok {
		return false
	}
	return t.PeriodID == uuid.Nil || t.PeriodID == e.PeriodID
}

// ErrImbalanceDetected reports debit and credit totals that differ beyond tolerance
type ErrImbalanceDetected struct {
	Delta     decimal.Decimal
	Tolerance decimal.Decimal
}

func (e ErrImbalanceDetected) Error() string {
	return "ledger imbalance detected: delta " + e.Delta.String() + " exceeds tolerance " + e.Tolerance.String()
}

// Is matches any ErrImbalanceDetected
func (e ErrImbalanceDetected) Is(target error) bool {
	_, ok := target.(ErrImbalanceDetected)
	return ok
}

// ErrClosingFailed wraps an infrastructure failure during the atomic close step
type ErrClosingFailed struct {
	PeriodID uuid.UUID
	Cause    error
}

func (e ErrClosingFailed) Error() string {
	return fmt.Sprintf("closing failed for period %s: %v", e.PeriodID, e.Cause)
}

func (e ErrClosingFailed) Unwrap() error {
	return e.Cause
}

// Is matches any ErrClosingFailed
func (e ErrClosingFailed) Is(target error) bool {
	_, ok := target.(ErrClosingFailed)
	return ok
}
