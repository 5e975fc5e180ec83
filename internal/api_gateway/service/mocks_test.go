package service

import (
	"context"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

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

// MockRegistry for testing
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) LoadChart(ctx context.Context) (*coa.Chart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coa.Chart), args.Error(1)
}

// MockRecalculationPublisher for testing
type MockRecalculationPublisher struct {
	mock.Mock
}

func (m *MockRecalculationPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRecalculationPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
