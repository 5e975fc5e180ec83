package closectl

import (
	"context"
	"time"

	"github.com/erp-period-closing/internal/api_gateway/service"
	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
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

type MockClosingService struct {
	mock.Mock
}

func (m *MockClosingService) ValidateClosing(ctx context.Context, periodID uuid.UUID) (*closing.ReadinessReport, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closing.ReadinessReport), args.Error(1)
}

func (m *MockClosingService) ClosePeriod(ctx context.Context, cmd *closingservice.ClosePeriodCommand) (*closingservice.CloseResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closingservice.CloseResult), args.Error(1)
}

func (m *MockClosingService) RecalculateTrialBalance(ctx context.Context, cmd *closingservice.RecalculateCommand) (*closingservice.CloseResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closingservice.CloseResult), args.Error(1)
}

func (m *MockClosingService) ReopenPeriod(ctx context.Context, cmd *closingservice.ReopenCommand) (*closingservice.CloseResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closingservice.CloseResult), args.Error(1)
}

type MockTrialBalanceQueryService struct {
	mock.Mock
}

func (m *MockTrialBalanceQueryService) GetTrialBalance(ctx context.Context, periodID uuid.UUID, filter trialbalance.Filter) (*service.TrialBalanceResult, error) {
	args := m.Called(ctx, periodID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TrialBalanceResult), args.Error(1)
}

func (m *MockTrialBalanceQueryService) ListCloseRuns(ctx context.Context, periodID uuid.UUID, limit int) ([]*closing.CloseRun, error) {
	args := m.Called(ctx, periodID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*closing.CloseRun), args.Error(1)
}
