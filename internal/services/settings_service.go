package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/repositories"
)

// SettingsKey is the stable key the dashboard settings are stored under
const SettingsKey = "config"

// SettingsListener is notified after settings were saved
type SettingsListener func(previous, current *models.DashboardSettings)

type SettingsService struct {
	kvRepo *repositories.KVRepository

	mu        sync.Mutex
	listeners []SettingsListener
}

func NewSettingsService(kvRepo *repositories.KVRepository) *SettingsService {
	return &SettingsService{
		kvRepo: kvRepo,
	}
}

// OnChange registers a listener for saved settings
func (s *SettingsService) OnChange(listener SettingsListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Get returns the stored settings, or the defaults when nothing was saved
func (s *SettingsService) Get() (*models.DashboardSettings, error) {
	value, ok, err := s.kvRepo.Get(SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("error getting settings: %w", err)
	}

	settings := models.DefaultDashboardSettings()
	if !ok {
		return settings, nil
	}

	if err := json.Unmarshal([]byte(value), settings); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}
	settings.Normalize()

	return settings, nil
}

// Update validates and stores settings, then notifies listeners
func (s *SettingsService) Update(settings *models.DashboardSettings) error {
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return err
	}

	previous, err := s.Get()
	if err != nil {
		return err
	}

	if err := s.save(settings); err != nil {
		return err
	}

	s.mu.Lock()
	listeners := append([]SettingsListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(previous.Clone(), settings.Clone())
	}
	return nil
}

// Seed stores settings only when nothing was saved yet. It reports whether
// the settings were stored.
func (s *SettingsService) Seed(settings *models.DashboardSettings) (bool, error) {
	_, ok, err := s.kvRepo.Get(SettingsKey)
	if err != nil {
		return false, fmt.Errorf("error getting settings: %w", err)
	}
	if ok {
		return false, nil
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return false, err
	}
	if err := s.save(settings); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SettingsService) save(settings *models.DashboardSettings) error {
	value, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	if err := s.kvRepo.Put(SettingsKey, string(value)); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
