package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobdex/pkg/models"
	"jobdex/pkg/utils"
)

// Saved pages arrive inline in the request body and routinely run to
// several megabytes.
const maxRequestBytes = 10 * 1024 * 1024

// RequestValidation middleware validates incoming requests
func RequestValidation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Add request ID to context
			requestID := utils.GenerateRequestID()
			c.Set("request_id", requestID)
			c.Response().Header().Set("X-Request-ID", requestID)

			if c.Request().Method == http.MethodPost || c.Request().Method == http.MethodPatch {
				if c.Request().ContentLength > maxRequestBytes {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error:     "request_too_large",
						Message:   "Request body too large",
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
			}

			return next(c)
		}
	}
}
