package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecoveryRouter(logBuffer *bytes.Buffer, withCorrelation bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelError}))

	router := gin.New()
	if withCorrelation {
		router.Use(CorrelationID())
	}
	router.Use(Recovery(logger))
	router.POST("/api/v1/periods/:id/close", func(c *gin.Context) {
		panic(errors.New("snapshot writer returned nil rows"))
	})
	router.GET("/api/v1/periods/:id/trial-balance", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"rows": []string{}}})
	})
	router.GET("/health", func(c *gin.Context) {
		panic("health check misconfigured")
	})
	return router
}

func TestRecoveryMiddleware(t *testing.T) {
	periodID := uuid.New().String()

	t.Run("PanicDuringCloseNamesThePeriod", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newRecoveryRouter(&logBuffer, true)

		correlationID := uuid.New().String()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/periods/"+periodID+"/close", nil)
		req.Header.Set(CorrelationIDHeader, correlationID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		errorField, ok := body["error"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", errorField["code"])
		assert.Equal(t, "An internal server error occurred", errorField["message"])
		assert.Equal(t, correlationID, body["correlation_id"])

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"ERROR"`)
		assert.Contains(t, logOutput, `"msg":"Panic recovered"`)
		assert.Contains(t, logOutput, `"error":"snapshot writer returned nil rows"`)
		assert.Contains(t, logOutput, `"stack":`)
		assert.Contains(t, logOutput, `"route":"/api/v1/periods/:id/close"`)
		assert.Contains(t, logOutput, `"period_id":"`+periodID+`"`)
		assert.Contains(t, logOutput, `"method":"POST"`)
	})

	t.Run("PanicOutsidePeriodRoutes", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newRecoveryRouter(&logBuffer, false)

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.NotContains(t, body, "correlation_id")

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"error":"health check misconfigured"`)
		assert.NotContains(t, logOutput, `"period_id"`)
	})

	t.Run("NoPanicNoEffect", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newRecoveryRouter(&logBuffer, true)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/periods/"+periodID+"/trial-balance", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, logBuffer.String())
	})
}
