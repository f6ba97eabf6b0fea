package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"biblio/internal/account/models"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/sentinel"
)

type accountStore interface {
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	ListByStatus(ctx context.Context, status models.AccountStatus) ([]*models.Account, error)
	Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
}

type AccountStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) accountStore
	store    accountStore
	ctx      context.Context
	now      time.Time
}

func TestInMemoryAccountStore(t *testing.T) {
	suite.Run(t, &AccountStoreSuite{newStore: func(*testing.T) accountStore { return NewInMemory() }})
}

func TestSQLiteAccountStore(t *testing.T) {
	suite.Run(t, &AccountStoreSuite{newStore: func(t *testing.T) accountStore {
		ctx := context.Background()
		db, err := database.Open(ctx, database.DriverSQLite, ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		if err := database.Migrate(ctx, db); err != nil {
			t.Fatalf("migrate sqlite: %v", err)
		}
		return NewSQL(db)
	}})
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *AccountStoreSuite) newAccount(email string, offset time.Duration) *models.Account {
	a, err := models.NewAccount(id.NewAccountID(), email, "Ana Gómez", "12345678", id.RoleMember, s.now.Add(offset))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, a))
	return a
}

// TestCreateAndFind verifies lookups by id and by email ignoring case.
func (s *AccountStoreSuite) TestCreateAndFind() {
	a := s.newAccount("ana@example.com", 0)

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Email, found.Email)
	s.Equal(models.AccountStatusPending, found.Status)
	s.Nil(found.LastPasswordChangeAt)

	byEmail, err := s.store.FindByEmail(s.ctx, "ANA@example.com")
	s.Require().NoError(err)
	s.Equal(a.ID, byEmail.ID)

	_, err = s.store.FindByID(s.ctx, id.NewAccountID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByEmail(s.ctx, "nadie@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestEmailUniqueness verifies a second account with the same email is refused.
func (s *AccountStoreSuite) TestEmailUniqueness() {
	s.newAccount("ana@example.com", 0)

	dup, err := models.NewAccount(id.NewAccountID(), "ana@example.com", "Otra", "87654321", id.RoleLibrarian, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
}

// TestListByStatus verifies status filtering keeps creation order.
func (s *AccountStoreSuite) TestListByStatus() {
	first := s.newAccount("a@example.com", 0)
	second := s.newAccount("b@example.com", time.Minute)
	third := s.newAccount("c@example.com", 2*time.Minute)

	_, err := s.store.Execute(s.ctx, second.ID, (*models.Account).CanApprove, func(a *models.Account) { a.ApplyApproved(s.now) })
	s.Require().NoError(err)

	pending, err := s.store.ListByStatus(s.ctx, models.AccountStatusPending)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
	s.Equal(third.ID, pending[1].ID)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

// TestExecute verifies validation failures leave the account untouched.
func (s *AccountStoreSuite) TestExecute() {
	a := s.newAccount("ana@example.com", 0)

	activated, err := s.store.Execute(s.ctx, a.ID, (*models.Account).CanActivate, func(acc *models.Account) {
		acc.Activate("hash", s.now.Add(time.Hour))
	})
	s.Require().NoError(err)
	s.Equal(models.AccountStatusActive, activated.Status)

	stored, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("hash", stored.PasswordHash)
	s.Require().NotNil(stored.LastPasswordChangeAt)
	s.True(stored.LastPasswordChangeAt.Equal(s.now.Add(time.Hour)))

	_, err = s.store.Execute(s.ctx, a.ID, (*models.Account).CanApprove, func(acc *models.Account) { acc.ApplyApproved(s.now) })
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.store.Execute(s.ctx, id.NewAccountID(), (*models.Account).CanApprove, func(*models.Account) {})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
