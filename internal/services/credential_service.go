package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/repositories"
)

// CredentialKey is the key the GitHub token is stored under
const CredentialKey = "github_token"

type CredentialService struct {
	kvRepo *repositories.KVRepository

	mu        sync.Mutex
	listeners []func(token string)
}

func NewCredentialService(kvRepo *repositories.KVRepository) *CredentialService {
	return &CredentialService{
		kvRepo: kvRepo,
	}
}

// OnChange registers a listener called with the new token, empty when cleared
func (s *CredentialService) OnChange(listener func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Get returns the stored token or an empty string
func (s *CredentialService) Get() (string, error) {
	token, _, err := s.kvRepo.Get(CredentialKey)
	if err != nil {
		return "", fmt.Errorf("error getting credential: %w", err)
	}
	return token, nil
}

// Set stores a new token
func (s *CredentialService) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &models.ValidationError{Field: "token", Message: "Token is required"}
	}

	if err := s.kvRepo.Put(CredentialKey, token); err != nil {
		return fmt.Errorf("error saving credential: %w", err)
	}
	s.notify(token)
	return nil
}

// Clear removes the stored token
func (s *CredentialService) Clear() error {
	if err := s.kvRepo.Delete(CredentialKey); err != nil {
		return fmt.Errorf("error deleting credential: %w", err)
	}
	s.notify("")
	return nil
}

// Seed stores token when it is set and no token was saved yet
func (s *CredentialService) Seed(token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	current, err := s.Get()
	if err != nil {
		return false, err
	}
	if current != "" {
		return false, nil
	}

	if err := s.kvRepo.Put(CredentialKey, token); err != nil {
		return false, fmt.Errorf("error saving credential: %w", err)
	}
	return true, nil
}

func (s *CredentialService) notify(token string) {
	s.mu.Lock()
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(token)
	}
}
