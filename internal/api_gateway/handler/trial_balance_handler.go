package handler

import (
	"log/slog"

	"github.com/erp-period-closing/internal/api_gateway/service"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/gin-gonic/gin"
)

// TrialBalanceHandler handles HTTP requests for stored trial balances and the audit log
type TrialBalanceHandler struct {
	queryService service.TrialBalanceQueryService
	logger       *slog.Logger
}

// NewTrialBalanceHandler creates a new trial balance handler
func NewTrialBalanceHandler(logger *slog.Logger, queryService service.TrialBalanceQueryService) *TrialBalanceHandler {
	return &TrialBalanceHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// Get returns the period's trial balance, filtered by search text and account type
func (h *TrialBalanceHandler) Get(c *gin.Context) {
	periodID, ok := parsePeriodID(c, h.logger)
	if !ok {
		return
	}

	var query TrialBalanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	filter := trialbalance.Filter{
		Search:         query.Search,
		IncludeHeaders: query.IncludeHeaders,
		HideEmpty:      query.HideEmpty,
	}
	if query.AccountType != "" {
		accountType, err := coa.ParseAccountType(query.AccountType)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		filter.AccountType = accountType
	}

	result, err := h.queryService.GetTrialBalance(c.Request.Context(), periodID, filter)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTrialBalanceToResponse(result))
}

// ListCloseRuns returns the period's close, recalculation and reopen history
func (h *TrialBalanceHandler) ListCloseRuns(c *gin.Context) {
	periodID, ok := parsePeriodID(c, h.logger)
	if !ok {
		return
	}

	var query CloseRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	runs, err := h.queryService.ListCloseRuns(c.Request.Context(), periodID, query.Limit)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	response := make([]CloseRunResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, mapCloseRunToResponse(run))
	}
	RespondOK(c, response)
}
