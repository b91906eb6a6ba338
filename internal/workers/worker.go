package workers

import (
	"context"
	"sync"
)

// WorkerType identifies what a worker does
type WorkerType string

const (
	WorkerTypeRefresh      WorkerType = "refresh"
	WorkerTypeNotification WorkerType = "notification"
)

// Worker interface defines the contract for all workers
type Worker interface {
	// Start runs the worker until ctx is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop gracefully stops the worker
	Stop() error

	// GetWorkerType returns the type of work this worker handles
	GetWorkerType() WorkerType

	// GetWorkerID returns the unique identifier for this worker
	GetWorkerID() string

	// IsRunning checks if the worker is currently running
	IsRunning() bool
}

// BaseWorker provides common functionality for all workers
type BaseWorker struct {
	WorkerID   string
	WorkerType WorkerType
	StopChan   chan struct{}

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(workerID string, workerType WorkerType) *BaseWorker {
	return &BaseWorker{
		WorkerID:   workerID,
		WorkerType: workerType,
		StopChan:   make(chan struct{}),
	}
}

// GetWorkerType returns the type of work this worker handles
func (w *BaseWorker) GetWorkerType() WorkerType {
	return w.WorkerType
}

// GetWorkerID returns the worker's unique identifier
func (w *BaseWorker) GetWorkerID() string {
	return w.WorkerID
}

// Stop gracefully stops the worker
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.StopChan)
	})
	return nil
}

// IsRunning checks if the worker is currently running
func (w *BaseWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *BaseWorker) setRunning(running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = running
}
