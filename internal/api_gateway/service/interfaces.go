package service

import (
	"context"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
)

// TrialBalanceStatus tells whether a period has a stored snapshot
type TrialBalanceStatus string

const (
	TrialBalanceStatusNotCalculated TrialBalanceStatus = "NOT_CALCULATED"
	TrialBalanceStatusAvailable     TrialBalanceStatus = "AVAILABLE"
)

// TrialBalanceResult is the read model behind the trial balance report
type TrialBalanceResult struct {
	Period   *period.Period
	Status   TrialBalanceStatus
	Header   *trialbalance.Header
	Rows     []trialbalance.ReportRow
	Totals   trialbalance.Totals
	Balanced bool
}

// TrialBalanceQueryService defines read operations over stored snapshots
type TrialBalanceQueryService interface {
	// GetTrialBalance returns ErrPeriodNotFound for an unknown period and a
	// NOT_CALCULATED result when the period has no snapshot yet
	GetTrialBalance(ctx context.Context, periodID uuid.UUID, filter trialbalance.Filter) (*TrialBalanceResult, error)

	// ListCloseRuns returns the period's audit log, newest first
	ListCloseRuns(ctx context.Context, periodID uuid.UUID, limit int) ([]*closing.CloseRun, error)
}

// RecalculationRequester hands recalculations to the worker over Kafka
type RecalculationRequester interface {
	// RequestRecalculation checks the period exists and publishes the request
	RequestRecalculation(ctx context.Context, request *shared.RecalculationRequest) error
}
