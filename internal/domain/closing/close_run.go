package closing

import (
	"context"
	"time"

	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CloseRun is the audit record of one close, recalculation or reopen attempt
type CloseRun struct {
	RunID             uuid.UUID        `json:"run_id" bson:"run_id"`
	PeriodID          uuid.UUID        `json:"period_id" bson:"period_id"`
	PeriodCode        string           `json:"period_code" bson:"period_code"`
	Action            shared.RunAction `json:"action" bson:"action"`
	Status            shared.RunStatus `json:"status" bson:"status"`
	Reason            string           `json:"reason,omitempty" bson:"reason,omitempty"`
	Actor             string           `json:"actor,omitempty" bson:"actor,omitempty"`
	CorrelationID     string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Report            *ReadinessReport `json:"report,omitempty" bson:"report,omitempty"`
	RowCount          int              `json:"row_count" bson:"row_count"`
	EndingDebit       decimal.Decimal  `json:"ending_debit" bson:"ending_debit"`
	EndingCredit      decimal.Decimal  `json:"ending_credit" bson:"ending_credit"`
	SuccessorPeriodID *uuid.UUID       `json:"successor_period_id,omitempty" bson:"successor_period_id,omitempty"`
	SuccessorCode     string           `json:"successor_code,omitempty" bson:"successor_code,omitempty"`
	StartedAt         time.Time        `json:"started_at" bson:"started_at"`
	FinishedAt        time.Time        `json:"finished_at" bson:"finished_at"`
}

// NewCloseRun starts an audit record for action on a period
func NewCloseRun(periodID uuid.UUID, action shared.RunAction, actor, correlationID string) *CloseRun {
	return &CloseRun{
		RunID:         uuid.New(),
		PeriodID:      periodID,
		Action:        action,
		Actor:         actor,
		CorrelationID: correlationID,
		StartedAt:     time.Now().UTC(),
	}
}

// Succeed marks the run successful
func (r *CloseRun) Succeed() {
	r.Status = shared.RunStatusSucceeded
	r.FinishedAt = time.Now().UTC()
}

// Reject marks the run as blocked by validation
func (r *CloseRun) Reject(reason string) {
	r.Status = shared.RunStatusRejected
	r.Reason = reason
	r.FinishedAt = time.Now().UTC()
}

// Fail marks the run as rolled back by an infrastructure error
func (r *CloseRun) Fail(reason string) {
	r.Status = shared.RunStatusFailed
	r.Reason = reason
	r.FinishedAt = time.Now().UTC()
}

// EventType maps the run action to the outbox event it produces
func (r *CloseRun) EventType() shared.EventType {
	switch r.Action {
	case shared.RunActionRecalculate:
		return shared.EventTypeTrialBalanceRecalculated
	case shared.RunActionReopen:
		return shared.EventTypePeriodReopened
	default:
		return shared.EventTypePeriodClosed
	}
}

// RunRepository is the append-mostly audit log of close runs
type RunRepository interface {
	// Record inserts the run or replaces the stored copy with the same RunID
	Record(ctx context.Context, run *CloseRun) error
	GetByRunID(ctx context.Context, runID uuid.UUID) (*CloseRun, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID, limit int) ([]*CloseRun, error)
}

// ErrRunNotFound indicates a missing close run
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e ErrRunNotFound) Error() string {
	return "close run not found: " + e.RunID.String()
}
