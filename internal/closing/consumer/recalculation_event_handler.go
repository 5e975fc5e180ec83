package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/platform/messaging/producers"
)

// RecalculationEventHandler handles trial balance recalculation requests from Kafka
type RecalculationEventHandler struct {
	closingService service.ClosingService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

// NewRecalculationEventHandler creates a new handler. producer may be nil when the DLQ is disabled.
func NewRecalculationEventHandler(
	logger *slog.Logger,
	closingService service.ClosingService,
	producer producers.DeadLetterPublisher,
) *RecalculationEventHandler {
	return &RecalculationEventHandler{
		closingService: closingService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage runs one recalculation. Returning nil commits the offset:
// rejected runs are already in the audit log, and undecodable messages or
// failed runs are parked on the DLQ for replay.
func (h *RecalculationEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.RecalculationRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal recalculation request from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		return h.deadLetter(ctx, key, value, "unmarshal_error: "+err.Error(), fmt.Errorf("failed to unmarshal message value: %w", err))
	}
	if err := request.Validate(); err != nil {
		h.logger.Error("Invalid recalculation request", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, "invalid_request: "+err.Error(), err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received recalculation request",
		"request_id", request.RequestID.String(),
		"period_id", request.PeriodID.String(),
		"requested_by", request.RequestedBy,
	)

	result, err := h.closingService.RecalculateTrialBalance(ctx, &service.RecalculateCommand{
		PeriodID:      request.PeriodID,
		RequestedBy:   request.RequestedBy,
		CorrelationID: request.CorrelationID,
	})
	if err != nil {
		if !errors.Is(err, closing.ErrClosingFailed{}) {
			logger.Warn("Recalculation rejected", "period_id", request.PeriodID.String(), "error", err)
			return nil
		}
		logger.Error("Recalculation failed", "period_id", request.PeriodID.String(), "error", err)
		return h.deadLetter(ctx, key, value, "recalculation_failed: "+err.Error(),
			fmt.Errorf("recalculating period %s failed: %w", request.PeriodID.String(), err))
	}

	logger.Info("Recalculation completed",
		"period_id", request.PeriodID.String(),
		"period_code", result.Run.PeriodCode,
		"rows", result.Run.RowCount,
	)
	return nil
}

// deadLetter parks the message on the DLQ, or returns cause so the offset stays uncommitted
func (h *RecalculationEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.producer == nil {
		return cause
	}
	if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", cause,
			"message_key", string(key),
		)
		return cause
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
