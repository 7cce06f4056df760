// Package ingest runs the extraction-to-persistence pipeline on a pool of
// worker goroutines fed by a round-robin dispatcher.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobdex/internal/config"
	"jobdex/internal/extractor"
	"jobdex/internal/logging"
	"jobdex/internal/storage"
	"jobdex/pkg/models"
	"jobdex/pkg/utils"
)

// JobStore is the slice of the storage layer the pipeline needs.
type JobStore interface {
	WriteJob(ctx context.Context, record *models.JobRecord) (storage.Outcome, error)
}

// Result carries the outcome of one ingestion task back to the submitter.
type Result struct {
	Record    *models.JobRecord
	Outcome   storage.Outcome
	Template  string
	Error     error
	RequestID string
	Duration  time.Duration
}

// Task is one saved page queued for extraction and persistence.
type Task struct {
	ID         string
	JobID      int64
	HTML       string
	Options    *models.IngestOptions
	ResultChan chan Result
	Context    context.Context
	CreatedAt  time.Time
}

// Worker is a single worker goroutine.
type Worker struct {
	ID       int
	TaskChan chan Task
	QuitChan chan bool
	Pool     *WorkerPool
	logger   logging.Logger
}

// WorkerPool manages the worker goroutines and the task queue.
type WorkerPool struct {
	config     *config.Config
	workers    []*Worker
	taskQueue  chan Task
	dispatcher *Dispatcher
	limiter    *rate.Limiter
	factory    *extractor.Factory
	store      JobStore
	logger     logging.Logger
	mu         sync.RWMutex
	running    bool
	stats      *poolStats
}

type poolStats struct {
	mu                  sync.RWMutex
	tasksQueued         int64
	tasksProcessed      int64
	inserted            int64
	duplicates          int64
	failed              int64
	totalProcessingTime time.Duration
}

// PoolStatsData is a point-in-time snapshot of pool counters.
type PoolStatsData struct {
	TasksQueued           int64         `json:"tasks_queued"`
	TasksProcessed        int64         `json:"tasks_processed"`
	Inserted              int64         `json:"inserted"`
	Duplicates            int64         `json:"duplicates"`
	Failed                int64         `json:"failed"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
}

// NewWorkerPool creates a worker pool sized per the configuration. The
// rate limit is a single global budget expressed per minute.
func NewWorkerPool(cfg *config.Config, store JobStore, logger logging.Logger) *WorkerPool {
	pool := &WorkerPool{
		config:    cfg,
		taskQueue: make(chan Task, cfg.Workers.QueueSize),
		limiter:   rate.NewLimiter(rate.Limit(float64(cfg.Workers.RateLimit)/60.0), cfg.Workers.PoolSize),
		factory:   extractor.NewFactory(),
		store:     store,
		logger:    logger,
		stats:     &poolStats{},
	}

	pool.workers = make([]*Worker, cfg.Workers.PoolSize)
	for i := 0; i < cfg.Workers.PoolSize; i++ {
		pool.workers[i] = &Worker{
			ID:       i + 1,
			TaskChan: make(chan Task),
			QuitChan: make(chan bool),
			Pool:     pool,
			logger:   logger.WithField("worker_id", i+1),
		}
	}

	pool.dispatcher = NewDispatcher(pool.taskQueue, pool.workers, logger)

	logger.Info("Worker pool initialized", map[string]interface{}{
		"pool_size": cfg.Workers.PoolSize,
	})
	return pool
}

// Start starts the dispatcher and all workers.
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return fmt.Errorf("worker pool is already running")
	}

	wp.dispatcher.Start()
	for _, worker := range wp.workers {
		go worker.Start()
	}

	wp.running = true
	wp.logger.Info("Worker pool started", map[string]interface{}{
		"workers": len(wp.workers),
	})
	return nil
}

// Stop stops the worker pool gracefully.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return nil
	}

	wp.dispatcher.Stop()
	for _, worker := range wp.workers {
		worker.Stop()
	}
	close(wp.taskQueue)

	wp.running = false
	wp.logger.Info("Worker pool stopped")
	return nil
}

// Submit queues one saved page for ingestion and blocks for its result.
func (wp *WorkerPool) Submit(ctx context.Context, req *models.IngestRequest) (*Result, error) {
	if !wp.IsRunning() {
		return nil, fmt.Errorf("worker pool is not running")
	}

	if !wp.limiter.Allow() {
		return nil, fmt.Errorf("ingestion rate limit exceeded")
	}

	task := Task{
		ID:         utils.GenerateRequestID(),
		JobID:      req.ID,
		HTML:       req.HTML,
		Options:    req.Options,
		ResultChan: make(chan Result, 1),
		Context:    ctx,
		CreatedAt:  time.Now(),
	}

	wp.stats.mu.Lock()
	wp.stats.tasksQueued++
	wp.stats.mu.Unlock()

	select {
	case wp.taskQueue <- task:
		wp.logger.Debug("Task submitted to queue", map[string]interface{}{
			"request_id": task.ID,
			"job_id":     task.JobID,
		})
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("task queue is full, request timed out")
	}

	timeout := wp.config.Workers.Timeout
	if req.Options != nil && req.Options.Timeout > 0 {
		timeout = req.Options.Timeout
	}

	select {
	case result := <-task.ResultChan:
		return &result, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("ingestion timed out after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsRunning returns true if the worker pool is running.
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}

// GetStats returns a snapshot of the pool counters.
func (wp *WorkerPool) GetStats() PoolStatsData {
	wp.stats.mu.RLock()
	defer wp.stats.mu.RUnlock()

	data := PoolStatsData{
		TasksQueued:    wp.stats.tasksQueued,
		TasksProcessed: wp.stats.tasksProcessed,
		Inserted:       wp.stats.inserted,
		Duplicates:     wp.stats.duplicates,
		Failed:         wp.stats.failed,
	}
	if data.TasksProcessed > 0 {
		data.AverageProcessingTime = wp.stats.totalProcessingTime / time.Duration(data.TasksProcessed)
	}
	return data
}

// Start runs the worker loop until Stop is called.
func (w *Worker) Start() {
	w.logger.Debug("Worker started")

	for {
		select {
		case task := <-w.TaskChan:
			w.processTask(task)
		case <-w.QuitChan:
			w.logger.Debug("Worker stopping")
			return
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	w.QuitChan <- true
}

func (w *Worker) processTask(task Task) {
	startTime := time.Now()
	result := w.ingest(task)
	result.Duration = time.Since(startTime)

	w.Pool.stats.mu.Lock()
	w.Pool.stats.tasksProcessed++
	w.Pool.stats.totalProcessingTime += result.Duration
	switch {
	case result.Error != nil:
		w.Pool.stats.failed++
	case result.Outcome == storage.OutcomeAlreadyExists:
		w.Pool.stats.duplicates++
	default:
		w.Pool.stats.inserted++
	}
	w.Pool.stats.mu.Unlock()

	select {
	case task.ResultChan <- result:
		w.logger.Info("Task completed", map[string]interface{}{
			"request_id":      task.ID,
			"outcome":         result.Outcome.String(),
			"processing_time": utils.FormatDuration(result.Duration),
			"success":         result.Error == nil,
		})
	case <-time.After(100 * time.Millisecond):
		w.logger.Debug("Result channel timeout, client may have disconnected", map[string]interface{}{
			"request_id": task.ID,
		})
	}
}

// ingest runs the extraction pipeline on one saved page and persists the
// record. Extraction failures never reach the store.
func (w *Worker) ingest(task Task) Result {
	result := Result{RequestID: task.ID}

	template := w.Pool.config.Extractor.Template
	if task.Options != nil {
		template = utils.GetStringOrDefault(task.Options.Template, template)
	}
	result.Template = template

	doc, err := extractor.Parse(task.HTML)
	if err != nil {
		result.Error = err
		return result
	}

	ex, err := w.Pool.factory.CreateExtractor(template)
	if err != nil {
		result.Error = err
		return result
	}

	record, err := ex.Extract(doc)
	if err != nil {
		result.Error = err
		return result
	}

	// The id embedded in the page is authoritative. A mismatch with the
	// submitted id usually means the client mixed up files.
	if task.JobID != 0 && task.JobID != record.ID {
		w.logger.Warn("Submitted job id does not match the page, using the page id", map[string]interface{}{
			"request_id":   task.ID,
			"submitted_id": task.JobID,
			"extracted_id": record.ID,
		})
	}

	outcome, err := w.Pool.store.WriteJob(task.Context, record)
	if err != nil {
		result.Error = err
		result.Outcome = storage.OutcomeFailed
		return result
	}

	result.Record = record
	result.Outcome = outcome
	return result
}
