package ingest

import (
	"context"
	"fmt"
	"sync"

	"jobdex/internal/config"
	"jobdex/internal/logging"
	"jobdex/pkg/models"
)

// PoolManager owns the worker pool lifecycle.
type PoolManager struct {
	config      *config.Config
	pool        *WorkerPool
	store       JobStore
	logger      logging.Logger
	mu          sync.RWMutex
	initialized bool
}

// PoolManagerStats aggregates pool state for the workers endpoint.
type PoolManagerStats struct {
	Initialized   bool           `json:"initialized"`
	PoolStats     *PoolStatsData `json:"pool_stats"`
	WorkerCount   int            `json:"worker_count"`
	QueueCapacity int            `json:"queue_capacity"`
}

func NewPoolManager(cfg *config.Config, store JobStore, logger logging.Logger) *PoolManager {
	return &PoolManager{
		config: cfg,
		store:  store,
		logger: logger.WithField("component", "pool_manager"),
	}
}

// Initialize creates and starts the worker pool.
func (pm *PoolManager) Initialize() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.initialized {
		return fmt.Errorf("worker pool already initialized")
	}

	pm.pool = NewWorkerPool(pm.config, pm.store, pm.logger)
	if err := pm.pool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	pm.initialized = true
	pm.logger.Info("Worker pool initialized")
	return nil
}

// Shutdown gracefully stops the worker pool.
func (pm *PoolManager) Shutdown() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !pm.initialized || pm.pool == nil {
		return nil
	}

	if err := pm.pool.Stop(); err != nil {
		pm.logger.Error("Error stopping worker pool", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	pm.initialized = false
	pm.logger.Info("Worker pool shutdown complete")
	return nil
}

// SubmitIngest submits one saved page to the worker pool.
func (pm *PoolManager) SubmitIngest(ctx context.Context, req *models.IngestRequest) (*Result, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	return pm.pool.Submit(ctx, req)
}

// GetStats returns worker pool statistics.
func (pm *PoolManager) GetStats() (*PoolManagerStats, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	stats := pm.pool.GetStats()
	return &PoolManagerStats{
		Initialized:   pm.initialized,
		PoolStats:     &stats,
		WorkerCount:   len(pm.pool.workers),
		QueueCapacity: pm.config.Workers.QueueSize,
	}, nil
}

// IsHealthy returns true if the worker pool is running.
func (pm *PoolManager) IsHealthy() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return pm.initialized && pm.pool != nil && pm.pool.IsRunning()
}
