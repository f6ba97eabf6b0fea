package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"biblio/internal/account/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

type InMemoryTokenStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryTokenStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTokenStoreSuite))
}

func (s *InMemoryTokenStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

// TestSaveFindDelete verifies the token lifecycle.
func (s *InMemoryTokenStoreSuite) TestSaveFindDelete() {
	accountID := id.NewAccountID()
	s.Require().NoError(s.store.Save(s.ctx, models.NewRegistrationToken("tok", accountID, 24*time.Hour, s.now)))

	found, err := s.store.Find(s.ctx, "tok", s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(accountID, found.AccountID)

	s.Require().NoError(s.store.Delete(s.ctx, "tok"))
	s.Require().NoError(s.store.Delete(s.ctx, "tok"))
	_, err = s.store.Find(s.ctx, "tok", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestExpiry verifies expired tokens are reported and purged.
func (s *InMemoryTokenStoreSuite) TestExpiry() {
	s.Require().NoError(s.store.Save(s.ctx, models.NewRegistrationToken("old", id.NewAccountID(), time.Hour, s.now)))
	s.Require().NoError(s.store.Save(s.ctx, models.NewRegistrationToken("new", id.NewAccountID(), 48*time.Hour, s.now)))

	later := s.now.Add(2 * time.Hour)
	_, err := s.store.Find(s.ctx, "old", later)
	s.ErrorIs(err, sentinel.ErrExpired)

	removed, err := s.store.PurgeExpired(s.ctx, later)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.Find(s.ctx, "new", later)
	s.NoError(err)
}
