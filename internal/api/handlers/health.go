package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"jobdex/internal/logging"
	"jobdex/pkg/models"
	"jobdex/pkg/utils"
)

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Health check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports ready only when the database answers a ping.
func ReadinessHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("Readiness check requested", map[string]interface{}{"request_id": requestID})

		checks := map[string]string{"api": "ok", "database": "ok"}
		status := "ready"
		httpStatus := http.StatusOK

		if err := pool.Ping(c.Request().Context()); err != nil {
			checks["database"] = err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		response := models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}

		return c.JSON(httpStatus, response)
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}
