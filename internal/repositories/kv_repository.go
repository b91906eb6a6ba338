package repositories

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// KVRepository stores small records under stable keys
type KVRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (r *KVRepository) Get(key string) (value string, ok bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT value FROM kv_store WHERE key = ?`

	err = r.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

// Put stores value under key, replacing any previous value
func (r *KVRepository) Put(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, key, value, time.Now())
	return err
}

func (r *KVRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`DELETE FROM kv_store WHERE key = ?`, key)
	return err
}
