package workers

import (
	"context"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/logger"
)

// RefreshWorker owns the refresh schedule. It starts the scheduler with the
// saved interval and keeps it in line with settings and credential changes.
type RefreshWorker struct {
	*BaseWorker
	scheduler         *services.SchedulerService
	dashboard         *services.DashboardService
	settingsService   *services.SettingsService
	credentialService *services.CredentialService
}

func NewRefreshWorker(
	workerID string,
	scheduler *services.SchedulerService,
	dashboard *services.DashboardService,
	settingsService *services.SettingsService,
	credentialService *services.CredentialService,
) *RefreshWorker {
	return &RefreshWorker{
		BaseWorker:        NewBaseWorker(workerID, WorkerTypeRefresh),
		scheduler:         scheduler,
		dashboard:         dashboard,
		settingsService:   settingsService,
		credentialService: credentialService,
	}
}

// Start begins the refresh worker process
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.WithField("worker_id", w.WorkerID).Info("Refresh worker started")

	w.settingsService.OnChange(w.onSettingsChange)
	w.credentialService.OnChange(w.onCredentialChange)

	if err := w.scheduler.Start(w.dashboard.Settings().AutoRefreshSeconds); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-w.StopChan:
	}

	logger.WithField("worker_id", w.WorkerID).Info("Refresh worker stopping")
	return w.scheduler.Shutdown()
}

// onSettingsChange reschedules on a new interval and refreshes when the
// fetched data depends on what changed
func (w *RefreshWorker) onSettingsChange(previous, current *models.DashboardSettings) {
	if err := w.scheduler.Reschedule(current.AutoRefreshSeconds); err != nil {
		logger.WithError(err).Error("Failed to reschedule refresh")
	}

	fetchComments := func(s *models.DashboardSettings) bool {
		return s.NotificationsEnabled && s.NotifyForComments
	}
	if previous.ReposEqual(current) && fetchComments(previous) == fetchComments(current) {
		return
	}
	w.trigger("settings changed")
}

func (w *RefreshWorker) onCredentialChange(string) {
	w.trigger("credential changed")
}

func (w *RefreshWorker) trigger(reason string) {
	if !w.IsRunning() {
		return
	}
	logger.WithField("reason", reason).Info("Triggering refresh")
	if err := w.scheduler.Trigger(); err != nil {
		logger.WithError(err).Error("Failed to trigger refresh")
	}
}
