package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erp-period-closing/internal/api_gateway/handler"
	"github.com/erp-period-closing/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	periodHandler *handler.PeriodHandler,
	trialBalanceHandler *handler.TrialBalanceHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		periods := v1.Group("/periods/:id")
		{
			periods.GET("/closing-readiness", periodHandler.ValidateClosing)
			periods.POST("/close", periodHandler.Close)
			periods.POST("/reopen", periodHandler.Reopen)

			periods.GET("/trial-balance", trialBalanceHandler.Get)
			periods.POST("/trial-balance/recalculate", periodHandler.Recalculate)
			periods.GET("/close-runs", trialBalanceHandler.ListCloseRuns)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
