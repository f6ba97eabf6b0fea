package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"biblio/internal/loan/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory loan store.
type InMemory struct {
	mu    sync.RWMutex
	loans map[id.LoanID]*models.Loan
}

func NewInMemory() *InMemory {
	return &InMemory{loans: make(map[id.LoanID]*models.Loan)}
}

func (s *InMemory) Create(_ context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.loans[loan.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.loans[loan.ID] = clone(loan)
	return nil
}

func (s *InMemory) Update(_ context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.loans[loan.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.loans[loan.ID] = clone(loan)
	return nil
}

func (s *InMemory) Delete(_ context.Context, loanID id.LoanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.loans[loanID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.loans, loanID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, loanID id.LoanID) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.loans[loanID]; ok {
		return clone(l), nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns every loan, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Loan, error) {
	return s.collect(func(*models.Loan) bool { return true }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, statuses ...models.LoanStatus) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return hasStatus(l, statuses) }), nil
}

func (s *InMemory) ListByMember(_ context.Context, memberID id.MemberID) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return l.MemberID == memberID }), nil
}

func (s *InMemory) ListByBook(_ context.Context, bookID id.BookID) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return l.BookID == bookID }), nil
}

// ListPastDue returns ACTIVE loans whose due date is before now.
func (s *InMemory) ListPastDue(_ context.Context, now time.Time) ([]*models.Loan, error) {
	return s.collect(func(l *models.Loan) bool { return l.IsOverdueAt(now) }), nil
}

func (s *InMemory) CountOutstandingByBook(_ context.Context, bookID id.BookID) (int, error) {
	return s.count(func(l *models.Loan) bool { return l.BookID == bookID && l.Status.IsOutstanding() }), nil
}

func (s *InMemory) CountOutstandingByMember(_ context.Context, memberID id.MemberID) (int, error) {
	return s.count(func(l *models.Loan) bool { return l.MemberID == memberID && l.Status.IsOutstanding() }), nil
}

// Execute atomically validates and mutates a loan under the store lock.
func (s *InMemory) Execute(_ context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.loans[loanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.loans[loanID] = working
	return clone(working), nil
}

func (s *InMemory) collect(keep func(*models.Loan) bool) []*models.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Loan, 0)
	for _, l := range s.loans {
		if keep(l) {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

func (s *InMemory) count(match func(*models.Loan) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.loans {
		if match(l) {
			n++
		}
	}
	return n
}

func hasStatus(l *models.Loan, statuses []models.LoanStatus) bool {
	for _, st := range statuses {
		if l.Status == st {
			return true
		}
	}
	return false
}

func clone(l *models.Loan) *models.Loan {
	c := *l
	if l.ReturnDate != nil {
		returned := *l.ReturnDate
		c.ReturnDate = &returned
	}
	return &c
}
