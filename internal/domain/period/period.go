package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyCode          = errors.New("period code cannot be empty")
	ErrInvalidDateRange   = errors.New("period start date must not be after end date")
	ErrInvalidQuarter     = errors.New("quarter must be between 1 and 4")
	ErrEmptyReopenReason  = errors.New("reopen reason cannot be empty")
	ErrInvalidCadence     = errors.New("unsupported successor cadence")
	ErrInvalidFiscalStart = errors.New("fiscal year start month must be between 1 and 12")
)

// Period is an accounting period. StartDate and EndDate are calendar dates
// (midnight UTC) and the range is inclusive on both ends.
type Period struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	FiscalYear   int        `json:"fiscal_year"`
	Quarter      int        `json:"quarter"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	IsClosed     bool       `json:"is_closed"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ClosedBy     string     `json:"closed_by,omitempty"`
	ReopenAt     *time.Time `json:"reopen_at,omitempty"`
	ReopenBy     string     `json:"reopen_by,omitempty"`
	ReopenReason string     `json:"reopen_reason,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewPeriod creates a new open period
func NewPeriod(code, name string, fiscalYear, quarter int, start, end time.Time) (*Period, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	if quarter < 1 || quarter > 4 {
		return nil, ErrInvalidQuarter
	}
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	now := time.Now().UTC()
	return &Period{
		ID:         uuid.New(),
		Code:       code,
		Name:       name,
		FiscalYear: fiscalYear,
		Quarter:    quarter,
		StartDate:  start,
		EndDate:    end,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DateOf truncates t to its calendar date in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether date falls within the period
func (p *Period) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// Overlaps reports whether the two periods share at least one day
func (p *Period) Overlaps(other *Period) bool {
	return !p.EndDate.Before(other.StartDate) && !other.EndDate.Before(p.StartDate)
}

// Close marks the period closed
func (p *Period) Close(by string, at time.Time) error {
	if p.IsClosed {
		return ErrPeriodAlreadyClosed{PeriodID: p.ID, Code: p.Code}
	}
	p.IsClosed = true
	p.ClosedAt = &at
	p.ClosedBy = by
	p.UpdatedAt = at
	p.Version++
	return nil
}

// Reopen returns a closed period to the open state, keeping the reopen lineage
func (p *Period) Reopen(by, reason string, at time.Time) error {
	if !p.IsClosed {
		return ErrPeriodNotClosed{PeriodID: p.ID}
	}
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReopenReason
	}
	p.IsClosed = false
	p.ReopenAt = &at
	p.ReopenBy = by
	p.ReopenReason = reason
	p.UpdatedAt = at
	p.Version++
	return nil
}

// Successor derives the period that follows p under the given cadence.
// The returned period is open and has not been persisted.
func (p *Period) Successor(cadence shared.Cadence, fiscalStartMonth int) (*Period, error) {
	if fiscalStartMonth < 1 || fiscalStartMonth > 12 {
		return nil, ErrInvalidFiscalStart
	}

	start := p.EndDate.AddDate(0, 0, 1)
	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	fy, quarter := FiscalPosition(start, fiscalStartMonth)

	switch cadence {
	case shared.CadenceMonthly, "":
		end := monthStart.AddDate(0, 1, -1)
		return NewPeriod(start.Format("2006-01"), start.Format("January 2006"), fy, quarter, start, end)
	case shared.CadenceQuarterly:
		end := monthStart.AddDate(0, 3, -1)
		code := fmt.Sprintf("%d-Q%d", fy, quarter)
		return NewPeriod(code, fmt.Sprintf("Q%d FY%d", quarter, fy), fy, quarter, start, end)
	default:
		return nil, ErrInvalidCadence
	}
}

// FiscalPosition returns the fiscal year and fiscal quarter of date. A fiscal
// year is labelled by the calendar year in which it starts.
func FiscalPosition(date time.Time, fiscalStartMonth int) (int, int) {
	month := int(date.Month())
	year := date.Year()
	if month < fiscalStartMonth {
		year--
	}
	offset := (month - fiscalStartMonth + 12) % 12
	return year, offset/3 + 1
}
