package service

import (
	"context"
	"log/slog"

	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/platform/messaging/producers"
)

// RecalculationServiceImpl implements the RecalculationRequester interface
type RecalculationServiceImpl struct {
	periodRepo period.Repository
	producer   producers.RecalculationPublisher
	logger     *slog.Logger
}

// NewRecalculationService creates a new recalculation requester
func NewRecalculationService(logger *slog.Logger, periodRepo period.Repository, producer producers.RecalculationPublisher) RecalculationRequester {
	return &RecalculationServiceImpl{
		periodRepo: periodRepo,
		producer:   producer,
		logger:     logger,
	}
}

// RequestRecalculation publishes request keyed by period so one partition
// sees every recalculation of a period in order
func (s *RecalculationServiceImpl) RequestRecalculation(ctx context.Context, request *shared.RecalculationRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}

	p, err := s.periodRepo.GetByID(ctx, request.PeriodID)
	if err != nil {
		return err
	}

	key := request.PeriodID.String()
	if err := s.producer.Publish(ctx, key, request); err != nil {
		s.logger.Error("Failed to publish recalculation request",
			"request_id", request.RequestID.String(),
			"period_id", key,
			"error", err,
		)
		return err
	}

	s.logger.Info("Recalculation request published",
		"request_id", request.RequestID.String(),
		"period_id", key,
		"period_code", p.Code,
		"requested_by", request.RequestedBy,
	)
	return nil
}
