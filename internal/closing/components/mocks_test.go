package components

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/domain/outbox"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// MockPeriodRepo for testing
type MockPeriodRepo struct {
	mock.Mock
}

func (m *MockPeriodRepo) Create(ctx context.Context, p *period.Period) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPeriodRepo) GetByID(ctx context.Context, id uuid.UUID) (*period.Period, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) GetByCode(ctx context.Context, code string) (*period.Period, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) GetPrevious(ctx context.Context, p *period.Period) (*period.Period, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) ListByFiscalYear(ctx context.Context, fiscalYear int) ([]*period.Period, error) {
	args := m.Called(ctx, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) ListAfter(ctx context.Context, after time.Time) ([]*period.Period, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) FindOverlapping(ctx context.Context, start, end time.Time) ([]*period.Period, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*period.Period, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*period.Period), args.Error(1)
}

func (m *MockPeriodRepo) MarkClosed(ctx context.Context, p *period.Period) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPeriodRepo) MarkReopened(ctx context.Context, p *period.Period) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPeriodRepo) WithTx(tx pgx.Tx) period.Repository {
	args := m.Called(tx)
	return args.Get(0).(period.Repository)
}

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByRunID(ctx context.Context, runID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// MockRunRepo for testing
type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Record(ctx context.Context, run *closing.CloseRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepo) GetByRunID(ctx context.Context, runID uuid.UUID) (*closing.CloseRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closing.CloseRun), args.Error(1)
}

func (m *MockRunRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID, limit int) ([]*closing.CloseRun, error) {
	args := m.Called(ctx, periodID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*closing.CloseRun), args.Error(1)
}

// MockTrialBalanceRepo for testing
type MockTrialBalanceRepo struct {
	mock.Mock
}

func (m *MockTrialBalanceRepo) GetSnapshotHeader(ctx context.Context, periodID uuid.UUID) (*trialbalance.Header, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trialbalance.Header), args.Error(1)
}

func (m *MockTrialBalanceRepo) GetEndingBalances(ctx context.Context, periodID uuid.UUID) (map[uuid.UUID]trialbalance.BalanceRow, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]trialbalance.BalanceRow), args.Error(1)
}

func (m *MockTrialBalanceRepo) ListRows(ctx context.Context, periodID uuid.UUID, filter trialbalance.Filter) ([]trialbalance.ReportRow, error) {
	args := m.Called(ctx, periodID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trialbalance.ReportRow), args.Error(1)
}

func (m *MockTrialBalanceRepo) ReplaceSnapshot(ctx context.Context, snapshot *trialbalance.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockTrialBalanceRepo) WithTx(tx pgx.Tx) trialbalance.Repository {
	args := m.Called(tx)
	return args.Get(0).(trialbalance.Repository)
}

// MockPeriodLock for testing
type MockPeriodLock struct {
	mock.Mock
}

func (m *MockPeriodLock) TryLock(ctx context.Context, periodID uuid.UUID) (bool, error) {
	args := m.Called(ctx, periodID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodLock) WithTx(tx pgx.Tx) closing.PeriodLock {
	args := m.Called(tx)
	return args.Get(0).(closing.PeriodLock)
}

// MockLedgerStore for testing
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) SumPostedAmounts(ctx context.Context, accountID uuid.UUID, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, accountID, start, end)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockLedgerStore) SumPostedByAccount(ctx context.Context, start, end time.Time) (map[uuid.UUID]ledger.Movement, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]ledger.Movement), args.Error(1)
}

func (m *MockLedgerStore) SumPostedTotals(ctx context.Context, start, end time.Time) (ledger.Movement, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(ledger.Movement), args.Error(1)
}

func (m *MockLedgerStore) SumPostedBefore(ctx context.Context, before time.Time) (map[uuid.UUID]ledger.Movement, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]ledger.Movement), args.Error(1)
}

// stubDraftCounter returns a fixed count for its category
type stubDraftCounter struct {
	category closing.DocumentCategory
	count    int
	err      error
	calls    int
}

func (c *stubDraftCounter) Category() closing.DocumentCategory { return c.category }

func (c *stubDraftCounter) Requirement() string { return "Resolve all drafts of " + string(c.category) }

func (c *stubDraftCounter) CountDraftsInRange(ctx context.Context, start, end time.Time) (int, error) {
	c.calls++
	return c.count, c.err
}

// staticRegistry serves a fixed chart
type staticRegistry struct {
	chart *coa.Chart
	err   error
}

func (r staticRegistry) LoadChart(ctx context.Context) (*coa.Chart, error) {
	return r.chart, r.err
}
