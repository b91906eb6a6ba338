package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/repositories"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/sirupsen/logrus"
)

// NotificationSink presents a notification to the user
type NotificationSink interface {
	Notify(ctx context.Context, notification *models.Notification) error
}

// LogSink writes notifications to the structured log
type LogSink struct{}

func (LogSink) Notify(_ context.Context, notification *models.Notification) error {
	logger.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"category":        notification.Category,
		"key":             notification.Key,
		"url":             notification.ClickURL,
	}).Infof("%s: %s", notification.Title, notification.Body)
	return nil
}

// StoreSink keeps notifications in the inbox table
type StoreSink struct {
	notificationRepo *repositories.NotificationRepository
}

func NewStoreSink(notificationRepo *repositories.NotificationRepository) *StoreSink {
	return &StoreSink{notificationRepo: notificationRepo}
}

func (s *StoreSink) Notify(_ context.Context, notification *models.Notification) error {
	if err := s.notificationRepo.Create(notification); err != nil {
		return fmt.Errorf("error storing notification: %w", err)
	}
	return nil
}

// MultiSink delivers to every sink and joins their errors
type MultiSink []NotificationSink

func (m MultiSink) Notify(ctx context.Context, notification *models.Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotificationService turns diff events into delivered notifications and
// serves the inbox
type NotificationService struct {
	notificationRepo *repositories.NotificationRepository
	sink             NotificationSink
	defaultIconURL   string
}

func NewNotificationService(notificationRepo *repositories.NotificationRepository, sink NotificationSink, defaultIconURL string) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		sink:             sink,
		defaultIconURL:   defaultIconURL,
	}
}

// Deliver builds a notification for event and hands it to the sink
func (s *NotificationService) Deliver(ctx context.Context, event models.NotificationEvent) (*models.Notification, error) {
	if event.IconURL == "" {
		event.IconURL = s.defaultIconURL
	}

	notification := models.NewNotification(event)
	if err := s.sink.Notify(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// GetRecent returns the latest inbox entries, newest first
func (s *NotificationService) GetRecent(limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	notifications, err := s.notificationRepo.GetRecent(limit)
	if err != nil {
		return nil, fmt.Errorf("error getting notifications: %w", err)
	}
	return notifications, nil
}

// Open marks a notification clicked and returns it
func (s *NotificationService) Open(id string) (*models.Notification, error) {
	notification, err := s.notificationRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("error getting notification: %w", err)
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}

	if !notification.IsClicked() {
		notification.MarkClicked()
		if err := s.notificationRepo.MarkClicked(notification.ID, *notification.ClickedAt); err != nil {
			return nil, fmt.Errorf("error updating notification: %w", err)
		}
	}
	return notification, nil
}

