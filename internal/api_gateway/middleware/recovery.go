package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery middleware turns a panic into the standard 500 error body
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				correlationID := GetCorrelationID(c)
				attrs := []any{
					"error", r,
					"stack", stack,
					"path", c.Request.URL.Path,
					"route", c.FullPath(),
					"method", c.Request.Method,
					"correlation_id", correlationID,
				}
				// a panic mid-close leaves the run unrecorded, so name the period
				if periodID := c.Param("id"); periodID != "" {
					attrs = append(attrs, "period_id", periodID)
				}
				logger.Error("Panic recovered", attrs...)

				response := gin.H{
					"error": gin.H{
						"code":    "INTERNAL_SERVER_ERROR",
						"message": "An internal server error occurred",
					},
				}

				if correlationID != "" {
					response["correlation_id"] = correlationID
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, response)
			}
		}()

		c.Next()
	}
}
