package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erp-period-closing/internal/api_gateway/middleware"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string, details interface{}) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	RespondWithErrorDetails(c, statusCode, code, message, nil)
}

// RespondWithErrorDetails sends a JSON error response carrying structured details
func RespondWithErrorDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	response := NewErrorResponse(code, message, details)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondAccepted sends a 202 Accepted response with data.
func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondConflict sends a 409 Conflict response with an error
func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

// RespondLocked sends a 423 Locked response with an error
func RespondLocked(c *gin.Context, message string) {
	RespondWithError(c, http.StatusLocked, "CLOSE_IN_PROGRESS", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// NotReadyDetails is the error body of a rejected close
type NotReadyDetails struct {
	Report      *closing.ReadinessReport `json:"report"`
	Remediation []string                 `json:"remediation"`
}

// RespondDomainError maps closing and period errors to HTTP status codes
func RespondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var notReady closing.ErrPeriodNotReady
	var imbalance closing.ErrImbalanceDetected

	switch {
	case errors.Is(err, period.ErrPeriodNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.As(err, &notReady):
		details := NotReadyDetails{Report: notReady.Report}
		if notReady.Report != nil {
			details.Remediation = notReady.Report.Remediation()
		}
		RespondWithErrorDetails(c, http.StatusUnprocessableEntity, "PERIOD_NOT_READY", err.Error(), details)
	case errors.As(err, &imbalance):
		RespondWithErrorDetails(c, http.StatusUnprocessableEntity, "IMBALANCE_DETECTED", err.Error(), gin.H{
			"delta":     imbalance.Delta,
			"tolerance": imbalance.Tolerance,
		})
	case errors.Is(err, closing.ErrPeriodCloseInProgress{}):
		RespondLocked(c, err.Error())
	case errors.Is(err, period.ErrPeriodAlreadyClosed{}),
		errors.As(err, &period.ErrPeriodNotClosed{}),
		errors.As(err, &period.ErrLaterPeriodClosed{}),
		errors.As(err, &period.ErrPreviousPeriodOpen{}),
		errors.As(err, &period.ErrPeriodOverlap{}):
		RespondConflict(c, err.Error())
	case errors.Is(err, period.ErrEmptyReopenReason):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, coa.ErrAccountNotFound{}),
		errors.Is(err, coa.ErrAccountNotPosting{}),
		errors.As(err, &coa.ErrInvalidChart{}):
		RespondWithError(c, http.StatusUnprocessableEntity, "CHART_OF_ACCOUNTS", err.Error())
	default:
		logger.Error("Unhandled closing error", "error", err)
		RespondInternalError(c)
	}
}
