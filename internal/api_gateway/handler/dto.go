package handler

import (
	"time"

	"github.com/erp-period-closing/internal/api_gateway/service"
	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/shopspring/decimal"
)

// ClosePeriodRequest represents a request to close a period
type ClosePeriodRequest struct {
	AutoCreateNext *bool  `json:"auto_create_next"`
	ClosedBy       string `json:"closed_by" binding:"required"`
}

// ReopenPeriodRequest represents a request to reopen a closed period
type ReopenPeriodRequest struct {
	ReopenBy string `json:"reopen_by" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// RecalculateRequest represents a request to rebuild a period's trial balance
type RecalculateRequest struct {
	RequestedBy string `json:"requested_by"`
}

// RecalculateQuery selects synchronous or queued recalculation
type RecalculateQuery struct {
	Async bool `form:"async"`
}

// TrialBalanceQuery represents the filters of the trial balance endpoint
type TrialBalanceQuery struct {
	Search         string `form:"search"`
	AccountType    string `form:"account_type"`
	IncludeHeaders bool   `form:"include_headers"`
	HideEmpty      bool   `form:"hide_empty"`
}

// CloseRunsQuery bounds the audit log listing
type CloseRunsQuery struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// PeriodResponse represents an accounting period in API responses
type PeriodResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	FiscalYear   int    `json:"fiscal_year"`
	Quarter      int    `json:"quarter"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsClosed     bool   `json:"is_closed"`
	ClosedAt     string `json:"closed_at,omitempty"`
	ClosedBy     string `json:"closed_by,omitempty"`
	ReopenAt     string `json:"reopen_at,omitempty"`
	ReopenBy     string `json:"reopen_by,omitempty"`
	ReopenReason string `json:"reopen_reason,omitempty"`
}

// CloseResultResponse represents a committed close, recalculation or reopen
type CloseResultResponse struct {
	RunID            string               `json:"run_id"`
	Action           string               `json:"action"`
	Status           string               `json:"status"`
	Period           PeriodResponse       `json:"period"`
	Successor        *PeriodResponse      `json:"successor,omitempty"`
	SuccessorCreated bool                 `json:"successor_created"`
	RowCount         int                  `json:"row_count"`
	Totals           *trialbalance.Totals `json:"totals,omitempty"`
}

// TrialBalanceRowResponse is one line of the trial balance report
type TrialBalanceRowResponse struct {
	AccountID     string          `json:"account_id"`
	AccountCode   string          `json:"account_code"`
	AccountName   string          `json:"account_name"`
	AccountType   string          `json:"account_type"`
	IsHeader      bool            `json:"is_header"`
	Level         int             `json:"level"`
	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	EndingDebit   decimal.Decimal `json:"ending_debit"`
	EndingCredit  decimal.Decimal `json:"ending_credit"`
	YTDDebit      decimal.Decimal `json:"ytd_debit"`
	YTDCredit     decimal.Decimal `json:"ytd_credit"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
	Currency      string          `json:"currency"`
}

// TrialBalanceResponse represents the trial balance of a period
type TrialBalanceResponse struct {
	Period       PeriodResponse            `json:"period"`
	Status       string                    `json:"status"`
	Source       string                    `json:"source,omitempty"`
	CalculatedAt string                    `json:"calculated_at,omitempty"`
	Rows         []TrialBalanceRowResponse `json:"rows"`
	Totals       trialbalance.Totals       `json:"totals"`
	Balanced     bool                      `json:"balanced"`
}

// CloseRunResponse represents one audit log entry
type CloseRunResponse struct {
	RunID         string                   `json:"run_id"`
	Action        string                   `json:"action"`
	Status        string                   `json:"status"`
	Reason        string                   `json:"reason,omitempty"`
	Actor         string                   `json:"actor,omitempty"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	RowCount      int                      `json:"row_count"`
	EndingDebit   decimal.Decimal          `json:"ending_debit"`
	EndingCredit  decimal.Decimal          `json:"ending_credit"`
	Report        *closing.ReadinessReport `json:"report,omitempty"`
	StartedAt     string                   `json:"started_at"`
	FinishedAt    string                   `json:"finished_at,omitempty"`
}

// ReadinessResponse wraps the readiness report with its remediation checklist
type ReadinessResponse struct {
	*closing.ReadinessReport
	Remediation []string `json:"remediation"`
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func mapPeriodToResponse(p *period.Period) PeriodResponse {
	return PeriodResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		FiscalYear:   p.FiscalYear,
		Quarter:      p.Quarter,
		StartDate:    p.StartDate.Format(time.DateOnly),
		EndDate:      p.EndDate.Format(time.DateOnly),
		IsClosed:     p.IsClosed,
		ClosedAt:     formatTime(p.ClosedAt),
		ClosedBy:     p.ClosedBy,
		ReopenAt:     formatTime(p.ReopenAt),
		ReopenBy:     p.ReopenBy,
		ReopenReason: p.ReopenReason,
	}
}

func mapCloseResultToResponse(result *closingservice.CloseResult) CloseResultResponse {
	response := CloseResultResponse{
		RunID:            result.Run.RunID.String(),
		Action:           string(result.Run.Action),
		Status:           string(result.Run.Status),
		Period:           mapPeriodToResponse(result.Period),
		SuccessorCreated: result.SuccessorCreated,
		RowCount:         result.Run.RowCount,
	}
	if result.Successor != nil {
		successor := mapPeriodToResponse(result.Successor)
		response.Successor = &successor
	}
	if result.Run.Action != shared.RunActionReopen {
		totals := result.Totals
		response.Totals = &totals
	}
	return response
}

func mapTrialBalanceToResponse(result *service.TrialBalanceResult) TrialBalanceResponse {
	response := TrialBalanceResponse{
		Period:   mapPeriodToResponse(result.Period),
		Status:   string(result.Status),
		Rows:     make([]TrialBalanceRowResponse, 0, len(result.Rows)),
		Totals:   result.Totals,
		Balanced: result.Balanced,
	}
	if result.Header != nil {
		response.Source = string(result.Header.Source)
		response.CalculatedAt = formatTime(&result.Header.CalculatedAt)
	}
	for _, row := range result.Rows {
		response.Rows = append(response.Rows, TrialBalanceRowResponse{
			AccountID:     row.AccountID.String(),
			AccountCode:   row.AccountCode,
			AccountName:   row.AccountName,
			AccountType:   string(row.AccountType),
			IsHeader:      row.IsHeader(),
			Level:         row.Level,
			OpeningDebit:  row.OpeningDebit,
			OpeningCredit: row.OpeningCredit,
			PeriodDebit:   row.PeriodDebit,
			PeriodCredit:  row.PeriodCredit,
			EndingDebit:   row.EndingDebit,
			EndingCredit:  row.EndingCredit,
			YTDDebit:      row.YTDDebit,
			YTDCredit:     row.YTDCredit,
			EndingBalance: row.EndingBalance(),
			Currency:      row.Currency,
		})
	}
	return response
}

func mapCloseRunToResponse(run *closing.CloseRun) CloseRunResponse {
	return CloseRunResponse{
		RunID:         run.RunID.String(),
		Action:        string(run.Action),
		Status:        string(run.Status),
		Reason:        run.Reason,
		Actor:         run.Actor,
		CorrelationID: run.CorrelationID,
		RowCount:      run.RowCount,
		EndingDebit:   run.EndingDebit,
		EndingCredit:  run.EndingCredit,
		Report:        run.Report,
		StartedAt:     formatTime(&run.StartedAt),
		FinishedAt:    formatTime(&run.FinishedAt),
	}
}
