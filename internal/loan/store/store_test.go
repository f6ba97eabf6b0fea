package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"biblio/internal/loan/models"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/sentinel"
)

type loanStore interface {
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	Delete(ctx context.Context, loanID id.LoanID) error
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	List(ctx context.Context) ([]*models.Loan, error)
	ListByStatus(ctx context.Context, statuses ...models.LoanStatus) ([]*models.Loan, error)
	ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Loan, error)
	ListByBook(ctx context.Context, bookID id.BookID) ([]*models.Loan, error)
	ListPastDue(ctx context.Context, now time.Time) ([]*models.Loan, error)
	CountOutstandingByBook(ctx context.Context, bookID id.BookID) (int, error)
	CountOutstandingByMember(ctx context.Context, memberID id.MemberID) (int, error)
	Execute(ctx context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error)
}

// LoanStoreSuite runs the same behavior checks against every backend.
type LoanStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) loanStore
	store    loanStore
	ctx      context.Context
}

func TestInMemoryLoanStore(t *testing.T) {
	suite.Run(t, &LoanStoreSuite{newStore: func(*testing.T) loanStore { return NewInMemory() }})
}

func TestSQLiteLoanStore(t *testing.T) {
	suite.Run(t, &LoanStoreSuite{newStore: func(t *testing.T) loanStore {
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

func (s *LoanStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
}

var day0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func (s *LoanStoreSuite) newLoan(bookID id.BookID, memberID id.MemberID, status models.LoanStatus, start time.Time) *models.Loan {
	l, err := models.NewLoan(id.NewLoanID(), bookID, memberID, "Rayuela", "9788437604572", status, 14, start)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, l))
	return l
}

// TestCreateAndFind verifies a loan round-trips with its snapshot and dates.
func (s *LoanStoreSuite) TestCreateAndFind() {
	l := s.newLoan(id.NewBookID(), id.NewMemberID(), models.LoanStatusActive, day0)

	found, err := s.store.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(l.BookID, found.BookID)
	s.Equal(l.MemberID, found.MemberID)
	s.Equal("Rayuela", found.BookTitle)
	s.Equal("9788437604572", found.BookISBN)
	s.True(l.StartDate.Equal(found.StartDate))
	s.True(l.DueDate.Equal(found.DueDate))
	s.Nil(found.ReturnDate)
	s.Equal(models.LoanStatusActive, found.Status)

	_, err = s.store.FindByID(s.ctx, id.NewLoanID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Create(s.ctx, l), sentinel.ErrAlreadyUsed)
}

// TestListOrderingAndFilters verifies newest-first ordering and the list filters.
func (s *LoanStoreSuite) TestListOrderingAndFilters() {
	book := id.NewBookID()
	member := id.NewMemberID()
	oldest := s.newLoan(book, member, models.LoanStatusActive, day0)
	middle := s.newLoan(id.NewBookID(), member, models.LoanStatusPending, day0.AddDate(0, 0, 1))
	newest := s.newLoan(book, id.NewMemberID(), models.LoanStatusPending, day0.AddDate(0, 0, 2))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]id.LoanID{newest.ID, middle.ID, oldest.ID}, []id.LoanID{all[0].ID, all[1].ID, all[2].ID})

	pending, err := s.store.ListByStatus(s.ctx, models.LoanStatusPending)
	s.Require().NoError(err)
	s.Len(pending, 2)

	out, err := s.store.ListByStatus(s.ctx, models.LoanStatusActive, models.LoanStatusOverdue)
	s.Require().NoError(err)
	s.Require().Len(out, 1)
	s.Equal(oldest.ID, out[0].ID)

	byMember, err := s.store.ListByMember(s.ctx, member)
	s.Require().NoError(err)
	s.Len(byMember, 2)

	byBook, err := s.store.ListByBook(s.ctx, book)
	s.Require().NoError(err)
	s.Require().Len(byBook, 2)
	s.Equal(newest.ID, byBook[0].ID)
}

// TestListPastDue verifies only ACTIVE loans strictly past due are returned.
func (s *LoanStoreSuite) TestListPastDue() {
	late := s.newLoan(id.NewBookID(), id.NewMemberID(), models.LoanStatusActive, day0)
	s.newLoan(id.NewBookID(), id.NewMemberID(), models.LoanStatusActive, day0.AddDate(0, 0, 10))
	s.newLoan(id.NewBookID(), id.NewMemberID(), models.LoanStatusPending, day0)

	now := day0.AddDate(0, 0, 15)
	due, err := s.store.ListPastDue(s.ctx, now)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(late.ID, due[0].ID)

	atDue, err := s.store.ListPastDue(s.ctx, late.DueDate)
	s.Require().NoError(err)
	s.Empty(atDue)
}

// TestCountOutstanding verifies PENDING, ACTIVE and OVERDUE count and FINISHED does not.
func (s *LoanStoreSuite) TestCountOutstanding() {
	book := id.NewBookID()
	member := id.NewMemberID()
	s.newLoan(book, member, models.LoanStatusPending, day0)
	finished := s.newLoan(book, member, models.LoanStatusActive, day0.AddDate(0, 0, 1))

	n, err := s.store.CountOutstandingByBook(s.ctx, book)
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.Execute(s.ctx, finished.ID,
		func(l *models.Loan) error { return l.CanReturn() },
		func(l *models.Loan) { l.ApplyReturned(0, day0.AddDate(0, 0, 3)) },
	)
	s.Require().NoError(err)

	n, err = s.store.CountOutstandingByMember(s.ctx, member)
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.CountOutstandingByBook(s.ctx, id.NewBookID())
	s.Require().NoError(err)
	s.Zero(n)
}

// TestExecute verifies validation failures leave the loan untouched and mutations persist.
func (s *LoanStoreSuite) TestExecute() {
	l := s.newLoan(id.NewBookID(), id.NewMemberID(), models.LoanStatusActive, day0)

	_, err := s.store.Execute(s.ctx, l.ID,
		func(l *models.Loan) error { return l.CanApprove() },
		func(l *models.Loan) { l.ApplyApproved() },
	)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	returnedAt := day0.AddDate(0, 0, 17)
	updated, err := s.store.Execute(s.ctx, l.ID,
		func(l *models.Loan) error { return l.CanReturn() },
		func(l *models.Loan) { l.ApplyReturned(30, returnedAt) },
	)
	s.Require().NoError(err)
	s.Equal(models.LoanStatusFinished, updated.Status)

	found, err := s.store.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.ReturnDate)
	s.True(returnedAt.Equal(*found.ReturnDate))
	s.Equal(int64(30), found.FineAmount)

	_, err = s.store.Execute(s.ctx, id.NewLoanID(),
		func(*models.Loan) error { return errors.New("unreachable") },
		func(*models.Loan) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestDelete verifies deletion and the not-found case.
func (s *LoanStoreSuite) TestDelete() {
	l := s.newLoan(id.NewBookID(), id.NewMemberID(), models.LoanStatusPending, day0)
	s.Require().NoError(s.store.Delete(s.ctx, l.ID))
	s.ErrorIs(s.store.Delete(s.ctx, l.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, l), sentinel.ErrNotFound)
}
