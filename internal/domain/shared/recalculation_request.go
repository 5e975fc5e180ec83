package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRecalculationRequest = errors.New("invalid recalculation request")

// RecalculationRequest defines a Kafka message asking a worker to recompute
// the trial balance snapshot of a period
type RecalculationRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	PeriodID      uuid.UUID `json:"period_id"`
	RequestedBy   string    `json:"requested_by"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate checks the request carries the identifiers a worker needs
func (r *RecalculationRequest) Validate() error {
	if r.RequestID == uuid.Nil || r.PeriodID == uuid.Nil {
		return ErrInvalidRecalculationRequest
	}
	return nil
}
