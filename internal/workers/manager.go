package workers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/logger"
)

// WorkerManager manages the background workers of the dashboard
type WorkerManager struct {
	workers             []Worker
	scheduler           *services.SchedulerService
	dashboard           *services.DashboardService
	settingsService     *services.SettingsService
	credentialService   *services.CredentialService
	notificationService *services.NotificationService

	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(
	scheduler *services.SchedulerService,
	dashboard *services.DashboardService,
	settingsService *services.SettingsService,
	credentialService *services.CredentialService,
	notificationService *services.NotificationService,
) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers:             make([]Worker, 0),
		scheduler:           scheduler,
		dashboard:           dashboard,
		settingsService:     settingsService,
		credentialService:   credentialService,
		notificationService: notificationService,
		ctx:                 ctx,
		cancel:              cancel,
	}
}

// StartAll starts the refresh worker and the notification workers
func (wm *WorkerManager) StartAll() error {
	notificationWorkers := wm.getWorkerCount("NOTIFICATION_WORKERS", 1)
	logger.Infof("Starting workers - Refresh: 1, Notification: %d", notificationWorkers)

	for i := 0; i < notificationWorkers; i++ {
		worker := NewNotificationWorker(fmt.Sprintf("notification-%d", i+1), wm.dashboard.Events(), wm.notificationService)
		wm.startWorker(worker)
	}

	refreshWorker := NewRefreshWorker("refresh-1", wm.scheduler, wm.dashboard, wm.settingsService, wm.credentialService)
	wm.startWorker(refreshWorker)

	logger.Infof("Started %d total workers", len(wm.workers))
	return nil
}

// StopAll gracefully stops all workers
func (wm *WorkerManager) StopAll() error {
	logger.Info("Stopping all workers...")

	// Cancel the context to signal all workers to stop
	wm.cancel()

	wm.mu.Lock()
	workers := append([]Worker(nil), wm.workers...)
	wm.mu.Unlock()

	for _, worker := range workers {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).Errorf("Error stopping worker %s", worker.GetWorkerID())
		}
	}

	wm.wg.Wait()

	logger.Info("All workers stopped")
	return nil
}

// getWorkerCount reads worker count from environment variable with fallback
func (wm *WorkerManager) getWorkerCount(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if count, err := strconv.Atoi(value); err == nil && count > 0 {
			return count
		}
		logger.Warnf("Invalid value for %s, using default: %d", envVar, defaultValue)
	}
	return defaultValue
}

// startWorker starts a single worker in a goroutine
func (wm *WorkerManager) startWorker(worker Worker) {
	wm.mu.Lock()
	wm.workers = append(wm.workers, worker)
	wm.mu.Unlock()

	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil {
			logger.WithError(err).Errorf("Worker %s stopped with error", worker.GetWorkerID())
		}
	}()
}

// GetWorkerStatus returns the status of all workers
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	status := make(map[string]bool, len(wm.workers))
	for _, worker := range wm.workers {
		status[worker.GetWorkerID()] = worker.IsRunning()
	}
	return status
}
