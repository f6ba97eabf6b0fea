package member

import (
	"context"
	"sort"
	"strings"
	"sync"

	"biblio/internal/catalog/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory member store.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.MemberID]*models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[id.MemberID]*models.Member)}
}

// Create inserts a member. National id and member number must be unused.
func (s *InMemory) Create(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[member.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if s.takenLocked(member) {
		return sentinel.ErrAlreadyUsed
	}
	s.members[member.ID] = clone(member)
	return nil
}

func (s *InMemory) Update(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[member.ID]; !exists {
		return sentinel.ErrNotFound
	}
	if s.takenLocked(member) {
		return sentinel.ErrAlreadyUsed
	}
	s.members[member.ID] = clone(member)
	return nil
}

func (s *InMemory) Delete(_ context.Context, memberID id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[memberID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.members, memberID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.members[memberID]; ok {
		return clone(m), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByNationalID(_ context.Context, nationalID string) (*models.Member, error) {
	return s.findFirst(func(m *models.Member) bool { return m.NationalID == nationalID })
}

// FindByEmail matches case-insensitively. With several matches the oldest member wins.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	return s.findFirst(func(m *models.Member) bool { return strings.EqualFold(m.Email, email) })
}

// List returns every member ordered by name.
func (s *InMemory) List(_ context.Context) ([]*models.Member, error) {
	out := s.collect(func(*models.Member) bool { return true })
	sortByName(out)
	return out, nil
}

// ListWithPendingFines returns members owing money, largest balance first.
func (s *InMemory) ListWithPendingFines(_ context.Context) ([]*models.Member, error) {
	out := s.collect(func(m *models.Member) bool { return m.PendingFines > 0 })
	sort.Slice(out, func(i, j int) bool {
		if out[i].PendingFines == out[j].PendingFines {
			return out[i].Name < out[j].Name
		}
		return out[i].PendingFines > out[j].PendingFines
	})
	return out, nil
}

// ListMemberNumbers returns every assigned member number.
func (s *InMemory) ListMemberNumbers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m.MemberNumber)
	}
	return out, nil
}

// Execute atomically validates and mutates a member under the store lock.
func (s *InMemory) Execute(_ context.Context, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.members[memberID] = working
	return clone(working), nil
}

func (s *InMemory) findFirst(match func(*models.Member) bool) (*models.Member, error) {
	found := s.collect(match)
	if len(found) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return found[0], nil
}

func (s *InMemory) collect(keep func(*models.Member) bool) []*models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		if keep(m) {
			out = append(out, clone(m))
		}
	}
	return out
}

func (s *InMemory) takenLocked(member *models.Member) bool {
	for memberID, m := range s.members {
		if memberID == member.ID {
			continue
		}
		if m.NationalID == member.NationalID || m.MemberNumber == member.MemberNumber {
			return true
		}
	}
	return false
}

func sortByName(members []*models.Member) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name == members[j].Name {
			return members[i].MemberNumber < members[j].MemberNumber
		}
		return members[i].Name < members[j].Name
	})
}

func clone(m *models.Member) *models.Member {
	c := *m
	return &c
}
