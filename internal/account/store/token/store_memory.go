package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"biblio/internal/account/models"
	"biblio/pkg/platform/sentinel"
)

// InMemory keeps registration tokens in a map. Expired tokens are reported as
// ErrExpired until they are deleted or swept by PurgeExpired.
type InMemory struct {
	mu     sync.RWMutex
	tokens map[string]*models.RegistrationToken
}

func NewInMemory() *InMemory {
	return &InMemory{tokens: make(map[string]*models.RegistrationToken)}
}

func (s *InMemory) Save(_ context.Context, token *models.RegistrationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *token
	s.tokens[token.Token] = &c
	return nil
}

func (s *InMemory) Find(_ context.Context, token string, now time.Time) (*models.RegistrationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, fmt.Errorf("registration token not found: %w", sentinel.ErrNotFound)
	}
	if t.IsExpiredAt(now) {
		return nil, fmt.Errorf("registration token expired: %w", sentinel.ErrExpired)
	}
	c := *t
	return &c, nil
}

// Delete is idempotent.
func (s *InMemory) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// PurgeExpired drops tokens past their expiry and returns how many were removed.
func (s *InMemory) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, t := range s.tokens {
		if t.IsExpiredAt(now) {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed, nil
}
