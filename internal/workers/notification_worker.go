package workers

import (
	"context"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/sirupsen/logrus"
)

// NotificationWorker delivers queued diff events
type NotificationWorker struct {
	*BaseWorker
	events              <-chan models.NotificationEvent
	notificationService *services.NotificationService
}

func NewNotificationWorker(workerID string, events <-chan models.NotificationEvent, notificationService *services.NotificationService) *NotificationWorker {
	return &NotificationWorker{
		BaseWorker:          NewBaseWorker(workerID, WorkerTypeNotification),
		events:              events,
		notificationService: notificationService,
	}
}

// Start begins the notification worker process
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.WithField("worker_id", w.WorkerID).Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.WithField("worker_id", w.WorkerID).Info("Notification worker stopping")
			return nil
		case <-w.StopChan:
			logger.WithField("worker_id", w.WorkerID).Info("Notification worker stopping")
			return nil
		case event, ok := <-w.events:
			if !ok {
				return nil
			}
			w.deliver(ctx, event)
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event models.NotificationEvent) {
	fields := logrus.Fields{
		"worker_id": w.WorkerID,
		"category":  event.Category,
		"key":       event.Key,
	}

	notification, err := w.notificationService.Deliver(ctx, event)
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Failed to deliver notification")
		return
	}
	logger.WithFields(fields).WithField("notification_id", notification.ID).Debug("Delivered notification")
}
