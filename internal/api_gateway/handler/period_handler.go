package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/erp-period-closing/internal/api_gateway/middleware"
	"github.com/erp-period-closing/internal/api_gateway/service"
	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// PeriodHandler handles HTTP requests for closing operations on a period
type PeriodHandler struct {
	closingService closingservice.ClosingService
	requester      service.RecalculationRequester
	logger         *slog.Logger
}

// NewPeriodHandler creates a new period handler. requester may be nil, which
// disables queued recalculation.
func NewPeriodHandler(logger *slog.Logger, closingService closingservice.ClosingService, requester service.RecalculationRequester) *PeriodHandler {
	return &PeriodHandler{
		closingService: closingService,
		requester:      requester,
		logger:         logger,
	}
}

// parsePeriodID reads the :id path parameter, answering 400 when it is malformed
func parsePeriodID(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Error("Invalid period ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid period ID")
		return uuid.Nil, false
	}
	return id, true
}

// ValidateClosing returns the readiness report of a period
func (h *PeriodHandler) ValidateClosing(c *gin.Context) {
	periodID, ok := parsePeriodID(c, h.logger)
	if !ok {
		return
	}

	report, err := h.closingService.ValidateClosing(c.Request.Context(), periodID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, ReadinessResponse{
		ReadinessReport: report,
		Remediation:     report.Remediation(),
	})
}

// Close validates, snapshots and closes a period in one transaction
func (h *PeriodHandler) Close(c *gin.Context) {
	periodID, ok := parsePeriodID(c, h.logger)
	if !ok {
		return
	}

	var req ClosePeriodRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	autoCreateNext := true
	if req.AutoCreateNext != nil {
		autoCreateNext = *req.AutoCreateNext
	}

	result, err := h.closingService.ClosePeriod(c.Request.Context(), &closingservice.ClosePeriodCommand{
		PeriodID:       periodID,
		AutoCreateNext: autoCreateNext,
		ClosedBy:       req.ClosedBy,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapCloseResultToResponse(result))
}

// bindOptionalJSON decodes the body when there is one. A missing body
// still runs the binding rules so defaults apply and required fields report.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return binding.Validator.ValidateStruct(obj)
	}
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return binding.Validator.ValidateStruct(obj)
	}
	return err
}

// Reopen returns a closed period to the open state
func (h *PeriodHandler) Reopen(c *gin.Context) {
	periodID, ok := parsePeriodID(c, h.logger)
	if !ok {
		return
	}

	var req ReopenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.closingService.ReopenPeriod(c.Request.Context(), &closingservice.ReopenCommand{
		PeriodID:      periodID,
		ReopenBy:      req.ReopenBy,
		Reason:        req.Reason,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapCloseResultToResponse(result))
}

// Recalculate rebuilds the trial balance in the request, or queues it for
// the worker when async=true
func (h *PeriodHandler) Recalculate(c *gin.Context) {
	periodID, ok := parsePeriodID(c, h.logger)
	if !ok {
		return
	}

	var query RecalculateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	var req RecalculateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Error("Invalid request body", "error", err)
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	if query.Async {
		h.enqueueRecalculation(c, periodID, req.RequestedBy)
		return
	}

	result, err := h.closingService.RecalculateTrialBalance(c.Request.Context(), &closingservice.RecalculateCommand{
		PeriodID:      periodID,
		RequestedBy:   req.RequestedBy,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapCloseResultToResponse(result))
}

func (h *PeriodHandler) enqueueRecalculation(c *gin.Context, periodID uuid.UUID, requestedBy string) {
	if h.requester == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "ASYNC_UNAVAILABLE", "Queued recalculation is not configured")
		return
	}

	request := &shared.RecalculationRequest{
		RequestID:     uuid.New(),
		PeriodID:      periodID,
		RequestedBy:   requestedBy,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now().UTC(),
	}
	if err := h.requester.RequestRecalculation(c.Request.Context(), request); err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondAccepted(c, gin.H{
		"request_id": request.RequestID.String(),
		"period_id":  periodID.String(),
		"status":     "QUEUED",
	})
}
