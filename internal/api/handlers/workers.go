package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobdex/internal/ingest"
	"jobdex/internal/logging"
	"jobdex/pkg/models"
	"jobdex/pkg/utils"
)

// WorkerStatsHandler returns worker pool statistics
func WorkerStatsHandler(poolManager *ingest.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		stats, err := poolManager.GetStats()
		if err != nil {
			logger.Error("Failed to get worker stats", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "Worker pool statistics are not available",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response := map[string]interface{}{
			"success":    true,
			"stats":      stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		}

		return c.JSON(http.StatusOK, response)
	}
}

// WorkerHealthHandler returns worker pool health status
func WorkerHealthHandler(poolManager *ingest.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		healthy := poolManager.IsHealthy()
		status := "healthy"
		httpStatus := http.StatusOK

		if !healthy {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"success":    healthy,
			"status":     status,
			"request_id": requestID,
			"timestamp":  time.Now(),
		}

		return c.JSON(httpStatus, response)
	}
}
