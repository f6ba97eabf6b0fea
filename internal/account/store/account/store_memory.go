package account

import (
	"context"
	"sort"
	"strings"
	"sync"

	"biblio/internal/account/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory account store.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.AccountID]*models.Account)}
}

// Create inserts an account. Emails are unique ignoring case.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if s.emailTakenLocked(account) {
		return sentinel.ErrAlreadyUsed
	}
	s.accounts[account.ID] = clone(account)
	return nil
}

func (s *InMemory) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; !exists {
		return sentinel.ErrNotFound
	}
	if s.emailTakenLocked(account) {
		return sentinel.ErrAlreadyUsed
	}
	s.accounts[account.ID] = clone(account)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[accountID]; ok {
		return clone(a), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return clone(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns every account, oldest first.
func (s *InMemory) List(_ context.Context) ([]*models.Account, error) {
	return s.collect(func(*models.Account) bool { return true }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.AccountStatus) ([]*models.Account, error) {
	return s.collect(func(a *models.Account) bool { return a.Status == status }), nil
}

// Execute atomically validates and mutates an account under the store lock.
func (s *InMemory) Execute(_ context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.accounts[accountID] = working
	return clone(working), nil
}

func (s *InMemory) collect(keep func(*models.Account) bool) []*models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *InMemory) emailTakenLocked(account *models.Account) bool {
	for accountID, a := range s.accounts {
		if accountID != account.ID && strings.EqualFold(a.Email, account.Email) {
			return true
		}
	}
	return false
}

func clone(a *models.Account) *models.Account {
	c := *a
	if a.LastPasswordChangeAt != nil {
		t := *a.LastPasswordChangeAt
		c.LastPasswordChangeAt = &t
	}
	return &c
}
