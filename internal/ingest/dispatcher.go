package ingest

import (
	"sync"

	"jobdex/internal/logging"
)

// Dispatcher distributes queued tasks across the workers.
type Dispatcher struct {
	taskQueue chan Task
	workers   []*Worker
	quit      chan bool
	logger    logging.Logger
	mu        sync.RWMutex
	running   bool
}

func NewDispatcher(taskQueue chan Task, workers []*Worker, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		taskQueue: taskQueue,
		workers:   workers,
		quit:      make(chan bool),
		logger:    logger.WithField("component", "dispatcher"),
	}
}

// Start starts the dispatch loop.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	go d.dispatch()

	d.running = true
	d.logger.Info("Task dispatcher started", map[string]interface{}{
		"workers": len(d.workers),
	})
}

// Stop stops the dispatcher.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.quit <- true
	d.running = false
	d.logger.Info("Task dispatcher stopped")
}

// dispatch assigns each task to exactly one worker, round-robin, skipping
// busy workers.
func (d *Dispatcher) dispatch() {
	workerIndex := 0

	for {
		select {
		case task := <-d.taskQueue:
		assignLoop:
			for {
				worker := d.workers[workerIndex]
				workerIndex = (workerIndex + 1) % len(d.workers)
				select {
				case worker.TaskChan <- task:
					break assignLoop
				default:
					continue
				}
			}

		case <-d.quit:
			return
		}
	}
}

// IsRunning returns true if the dispatcher is running.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
