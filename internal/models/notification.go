package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory represents the kind of change a notification reports
type NotificationCategory string

const (
	NotificationCategoryReadyForReview NotificationCategory = "ready_for_review"
	NotificationCategoryReview         NotificationCategory = "review"
	NotificationCategoryComment        NotificationCategory = "comment"
)

// NotificationEvent is a single notable change found by diffing two snapshots.
// Key is unique per category and fact, e.g. "review:123".
type NotificationEvent struct {
	Category NotificationCategory `json:"category"`
	Key      string               `json:"key"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	ClickURL string               `json:"click_url"`
	IconURL  string               `json:"icon_url"`
}

// Notification represents a delivered notification kept in the inbox
type Notification struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"category"`
	Key       string               `json:"key"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	ClickURL  string               `json:"click_url"`
	IconURL   string               `json:"icon_url"`
	CreatedAt time.Time            `json:"created_at"`
	ClickedAt *time.Time           `json:"clicked_at"`
}

// NewNotification creates an inbox entry for an event with a generated UUID
func NewNotification(event NotificationEvent) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		Category:  event.Category,
		Key:       event.Key,
		Title:     event.Title,
		Body:      event.Body,
		ClickURL:  event.ClickURL,
		IconURL:   event.IconURL,
		CreatedAt: time.Now(),
	}
}

// MarkClicked records that the notification was opened
func (n *Notification) MarkClicked() {
	now := time.Now()
	n.ClickedAt = &now
}

// IsClicked checks if the notification was opened
func (n *Notification) IsClicked() bool {
	return n.ClickedAt != nil
}
