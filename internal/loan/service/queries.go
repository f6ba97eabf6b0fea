package service

import (
	"context"

	catalogmodels "biblio/internal/catalog/models"
	"biblio/internal/loan/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

func (s *Service) GetLoan(ctx context.Context, loanID id.LoanID) (*models.LoanDetails, error) {
	l, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, wrapStoreErr(err, "loan not found", "", "failed to load loan")
	}
	details, err := s.withDetails(ctx, []*models.Loan{l})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListLoans returns every loan with its book and member, newest first.
func (s *Service) ListLoans(ctx context.Context) ([]models.LoanDetails, error) {
	return s.list(ctx, s.loans.List)
}

func (s *Service) ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.LoanDetails, error) {
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of PENDING, ACTIVE, FINISHED, OVERDUE")
	}
	return s.list(ctx, func(ctx context.Context) ([]*models.Loan, error) {
		return s.loans.ListByStatus(ctx, status)
	})
}

// ListActiveLoans returns loans whose book is out: ACTIVE and OVERDUE.
func (s *Service) ListActiveLoans(ctx context.Context) ([]models.LoanDetails, error) {
	return s.list(ctx, func(ctx context.Context) ([]*models.Loan, error) {
		return s.loans.ListByStatus(ctx, models.LoanStatusActive, models.LoanStatusOverdue)
	})
}

func (s *Service) ListLoansByMember(ctx context.Context, memberID id.MemberID) ([]models.LoanDetails, error) {
	return s.list(ctx, func(ctx context.Context) ([]*models.Loan, error) {
		return s.loans.ListByMember(ctx, memberID)
	})
}

func (s *Service) ListLoansByBook(ctx context.Context, bookID id.BookID) ([]models.LoanDetails, error) {
	return s.list(ctx, func(ctx context.Context) ([]*models.Loan, error) {
		return s.loans.ListByBook(ctx, bookID)
	})
}

// ListLoansForEmail returns the loans of the member linked to an account email.
func (s *Service) ListLoansForEmail(ctx context.Context, email string) ([]models.LoanDetails, error) {
	member, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapStoreErr(err, "no member is linked to this account", "", "failed to load member")
	}
	return s.ListLoansByMember(ctx, member.ID)
}

func (s *Service) list(ctx context.Context, load func(context.Context) ([]*models.Loan, error)) ([]models.LoanDetails, error) {
	loans, err := load(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loans")
	}
	return s.withDetails(ctx, loans)
}

// withDetails joins loans with their book and member. Records deleted since the loan
// finished are left nil.
func (s *Service) withDetails(ctx context.Context, loans []*models.Loan) ([]models.LoanDetails, error) {
	books := make(map[id.BookID]*catalogmodels.Book)
	members := make(map[id.MemberID]*catalogmodels.Member)
	out := make([]models.LoanDetails, 0, len(loans))
	for _, l := range loans {
		b, ok := books[l.BookID]
		if !ok {
			found, err := s.books.FindByID(ctx, l.BookID)
			if err != nil && !isNotFound(err) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load book")
			}
			b = found
			books[l.BookID] = found
		}
		m, ok := members[l.MemberID]
		if !ok {
			found, err := s.members.FindByID(ctx, l.MemberID)
			if err != nil && !isNotFound(err) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
			}
			m = found
			members[l.MemberID] = found
		}
		out = append(out, models.LoanDetails{Loan: l, Book: b, Member: m})
	}
	return out, nil
}
