package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"jobdex/internal/api/routes"
	"jobdex/internal/config"
	"jobdex/internal/ingest"
	"jobdex/internal/logging"
	"jobdex/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Adapters); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Jobdex Ingestion Service")

	// Connect to PostgreSQL. A store that cannot be reached is fatal.
	ctx := context.Background()
	pool, err := storage.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Fatal("Failed to apply database schema", map[string]interface{}{
			"error": err.Error(),
		})
	}

	store := storage.NewStore(pool, cfg.Database.QueryTimeout, logger)

	// Initialize worker pool
	poolManager := ingest.NewPoolManager(cfg, store, logger)
	if err := poolManager.Initialize(); err != nil {
		logger.Fatal("Failed to start worker pool", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer poolManager.Shutdown()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, cfg, poolManager, store, pool)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Stopping worker pool...")
		if err := poolManager.Shutdown(); err != nil {
			logger.Error("Error stopping worker pool", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed to start", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
