package repositories

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/alimgiray/prdash/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO notifications (
			id, category, event_key, title, body, click_url, icon_url, created_at, clicked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		notification.ID, string(notification.Category), notification.Key, notification.Title, notification.Body,
		notification.ClickURL, notification.IconURL, notification.CreatedAt, notification.ClickedAt,
	)

	return err
}

// GetByID returns the notification or nil when it does not exist
func (r *NotificationRepository) GetByID(id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, category, event_key, title, body, click_url, icon_url, created_at, clicked_at
		FROM notifications WHERE id = ?
	`

	notification, err := scanNotification(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return notification, nil
}

// GetRecent returns the newest notifications first
func (r *NotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, category, event_key, title, body, click_url, icon_url, created_at, clicked_at
		FROM notifications ORDER BY created_at DESC, rowid DESC LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkClicked(id string, clickedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`UPDATE notifications SET clicked_at = ? WHERE id = ?`, clickedAt, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var notification models.Notification
	var category string
	var clickedAt sql.NullTime

	err := row.Scan(
		&notification.ID, &category, &notification.Key, &notification.Title, &notification.Body,
		&notification.ClickURL, &notification.IconURL, &notification.CreatedAt, &clickedAt,
	)
	if err != nil {
		return nil, err
	}

	notification.Category = models.NotificationCategory(category)
	if clickedAt.Valid {
		notification.ClickedAt = &clickedAt.Time
	}

	return &notification, nil
}
