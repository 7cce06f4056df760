package routes

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobdex/internal/api/handlers"
	"jobdex/internal/api/middleware"
	"jobdex/internal/config"
	"jobdex/internal/ingest"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, poolManager *ingest.PoolManager, store handlers.JobStore, pool *pgxpool.Pool) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	e.Use(middleware.TimeoutConfig(cfg.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(pool))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/workers", handlers.WorkerHealthHandler(poolManager))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", handlers.IngestJobHandler(poolManager))
			jobs.GET("", handlers.ListJobsHandler(store))
			jobs.GET("/:id", handlers.GetJobHandler(store))
			jobs.PATCH("/reject", handlers.RejectJobHandler(store))
		}

		workers := v1.Group("/workers")
		{
			workers.GET("/stats", handlers.WorkerStatsHandler(poolManager))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Jobdex Ingestion Service",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
