package period

import (
	"errors"
	"testing"
	"time"

	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPeriod(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		p, err := NewPeriod("2025-01", "January 2025", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, "2025-01", p.Code)
		assert.False(t, p.IsClosed)
		assert.Equal(t, 1, p.Version)
		assert.Nil(t, p.ClosedAt)
	})

	t.Run("TruncatesToDates", func(t *testing.T) {
		p, err := NewPeriod("2025-01", "", 2025, 1, time.Date(2025, 1, 1, 15, 4, 5, 0, time.UTC), time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, date(2025, 1, 1), p.StartDate)
		assert.Equal(t, date(2025, 1, 31), p.EndDate)
	})

	t.Run("SingleDayPeriod", func(t *testing.T) {
		_, err := NewPeriod("2025-01-15", "", 2025, 1, date(2025, 1, 15), date(2025, 1, 15))
		assert.NoError(t, err)
	})

	t.Run("Rejections", func(t *testing.T) {
		_, err := NewPeriod(" ", "", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
		assert.ErrorIs(t, err, ErrEmptyCode)

		_, err = NewPeriod("2025-01", "", 2025, 5, date(2025, 1, 1), date(2025, 1, 31))
		assert.ErrorIs(t, err, ErrInvalidQuarter)

		_, err = NewPeriod("2025-01", "", 2025, 1, date(2025, 2, 1), date(2025, 1, 31))
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestPeriod_Contains(t *testing.T) {
	p, err := NewPeriod("2025-01", "", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)

	assert.True(t, p.Contains(date(2025, 1, 1)))
	assert.True(t, p.Contains(time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(date(2024, 12, 31)))
	assert.False(t, p.Contains(date(2025, 2, 1)))
}

func TestPeriod_Overlaps(t *testing.T) {
	jan, _ := NewPeriod("2025-01", "", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
	feb, _ := NewPeriod("2025-02", "", 2025, 1, date(2025, 2, 1), date(2025, 2, 28))
	midJan, _ := NewPeriod("X", "", 2025, 1, date(2025, 1, 31), date(2025, 2, 10))

	assert.False(t, jan.Overlaps(feb))
	assert.True(t, jan.Overlaps(midJan))
	assert.True(t, feb.Overlaps(midJan))
}

func TestPeriod_CloseAndReopen(t *testing.T) {
	p, err := NewPeriod("2025-01", "", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	closedAt := time.Now().UTC()

	require.NoError(t, p.Close("controller", closedAt))
	assert.True(t, p.IsClosed)
	assert.Equal(t, "controller", p.ClosedBy)
	require.NotNil(t, p.ClosedAt)
	assert.Equal(t, closedAt, *p.ClosedAt)
	assert.Equal(t, 2, p.Version)

	err = p.Close("controller", closedAt)
	assert.True(t, errors.Is(err, ErrPeriodAlreadyClosed{}))

	err = p.Reopen("auditor", "  ", closedAt)
	assert.ErrorIs(t, err, ErrEmptyReopenReason)

	reopenAt := closedAt.Add(time.Hour)
	require.NoError(t, p.Reopen("auditor", "late supplier invoice", reopenAt))
	assert.False(t, p.IsClosed)
	assert.Equal(t, "auditor", p.ReopenBy)
	assert.Equal(t, "late supplier invoice", p.ReopenReason)
	assert.Equal(t, reopenAt, *p.ReopenAt)
	assert.Equal(t, 3, p.Version)

	var notClosed ErrPeriodNotClosed
	assert.ErrorAs(t, p.Reopen("auditor", "again", reopenAt), &notClosed)
}

func TestPeriod_Successor(t *testing.T) {
	t.Run("MonthlyCalendarYear", func(t *testing.T) {
		jan, _ := NewPeriod("2025-01", "January 2025", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
		next, err := jan.Successor(shared.CadenceMonthly, 1)
		require.NoError(t, err)

		assert.Equal(t, "2025-02", next.Code)
		assert.Equal(t, "February 2025", next.Name)
		assert.Equal(t, date(2025, 2, 1), next.StartDate)
		assert.Equal(t, date(2025, 2, 28), next.EndDate)
		assert.Equal(t, 2025, next.FiscalYear)
		assert.Equal(t, 1, next.Quarter)
		assert.False(t, next.IsClosed)
	})

	t.Run("MonthlyYearRollover", func(t *testing.T) {
		dec, _ := NewPeriod("2024-12", "", 2024, 4, date(2024, 12, 1), date(2024, 12, 31))
		next, err := dec.Successor(shared.CadenceMonthly, 1)
		require.NoError(t, err)

		assert.Equal(t, "2025-01", next.Code)
		assert.Equal(t, 2025, next.FiscalYear)
		assert.Equal(t, 1, next.Quarter)
	})

	t.Run("LeapYearFebruary", func(t *testing.T) {
		jan, _ := NewPeriod("2024-01", "", 2024, 1, date(2024, 1, 1), date(2024, 1, 31))
		next, err := jan.Successor("", 1)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 2, 29), next.EndDate)
	})

	t.Run("QuarterlyWithAprilFiscalYear", func(t *testing.T) {
		q4, _ := NewPeriod("2024-Q4", "", 2024, 4, date(2025, 1, 1), date(2025, 3, 31))
		next, err := q4.Successor(shared.CadenceQuarterly, 4)
		require.NoError(t, err)

		assert.Equal(t, "2025-Q1", next.Code)
		assert.Equal(t, date(2025, 4, 1), next.StartDate)
		assert.Equal(t, date(2025, 6, 30), next.EndDate)
		assert.Equal(t, 2025, next.FiscalYear)
		assert.Equal(t, 1, next.Quarter)
	})

	t.Run("InvalidInputs", func(t *testing.T) {
		jan, _ := NewPeriod("2025-01", "", 2025, 1, date(2025, 1, 1), date(2025, 1, 31))
		_, err := jan.Successor("weekly", 1)
		assert.ErrorIs(t, err, ErrInvalidCadence)
		_, err = jan.Successor(shared.CadenceMonthly, 13)
		assert.ErrorIs(t, err, ErrInvalidFiscalStart)
	})
}

func TestFiscalPosition(t *testing.T) {
	testCases := []struct {
		name        string
		date        time.Time
		startMonth  int
		wantYear    int
		wantQuarter int
	}{
		{"CalendarJanuary", date(2025, 1, 15), 1, 2025, 1},
		{"CalendarDecember", date(2025, 12, 15), 1, 2025, 4},
		{"AprilStartInMarch", date(2025, 3, 1), 4, 2024, 4},
		{"AprilStartInApril", date(2025, 4, 1), 4, 2025, 1},
		{"JulyStartInOctober", date(2025, 10, 1), 7, 2025, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			year, quarter := FiscalPosition(tc.date, tc.startMonth)
			assert.Equal(t, tc.wantYear, year)
			assert.Equal(t, tc.wantQuarter, quarter)
		})
	}
}

func TestErrPeriodNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := error(ErrPeriodNotFound{PeriodID: id})

	assert.True(t, errors.Is(err, ErrPeriodNotFound{}))
	assert.True(t, errors.Is(err, ErrPeriodNotFound{PeriodID: id}))
	assert.False(t, errors.Is(err, ErrPeriodNotFound{PeriodID: uuid.New()}))
}
