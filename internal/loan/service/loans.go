package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	catalogmodels "biblio/internal/catalog/models"
	"biblio/internal/loan/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/requestcontext"
)

// CreateLoan lends a book to a member. The book must be AVAILABLE and the member must
// have no pending fines. An ACTIVE loan marks the book LOANED in the same transaction;
// a PENDING loan leaves the book alone until approval. loanDays of zero uses the
// configured default.
func (s *Service) CreateLoan(ctx context.Context, bookID id.BookID, memberID id.MemberID, status models.LoanStatus, loanDays int) (loan *models.Loan, err error) {
	ctx, span := s.startSpan(ctx, "loan.CreateLoan",
		attribute.String("book_id", bookID.String()),
		attribute.String("member_id", memberID.String()),
		attribute.String("status", string(status)),
	)
	defer func() { endSpan(span, err) }()

	if loanDays == 0 {
		loanDays = s.config.DefaultLoanDays
	}
	if status != models.LoanStatusPending && status != models.LoanStatusActive {
		return nil, dErrors.New(dErrors.CodeValidation, "initial status must be PENDING or ACTIVE")
	}
	if loanDays < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "loan days must be at least 1")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		book, err := s.books.FindByID(txCtx, bookID)
		if err != nil {
			return wrapStoreErr(err, "book not found", "", "failed to load book")
		}
		if err := book.CanLend(); err != nil {
			s.refused(dErrors.CodeUnavailable)
			return err
		}
		member, err := s.members.FindByID(txCtx, memberID)
		if err != nil {
			return wrapStoreErr(err, "member not found", "", "failed to load member")
		}
		if err := member.CanBorrow(); err != nil {
			s.refused(dErrors.CodeIneligibleMember)
			return err
		}

		l, err := models.NewLoan(id.NewLoanID(), book.ID, member.ID, book.Title, book.ISBN, status, loanDays, now)
		if err != nil {
			return asValidation(err)
		}
		if err := s.loans.Create(txCtx, l); err != nil {
			return wrapStoreErr(err, "loan not found", "loan already exists", "failed to create loan")
		}
		if status == models.LoanStatusActive {
			if err := s.lendBook(txCtx, book.ID, now); err != nil {
				// Memory stores have no rollback.
				if delErr := s.loans.Delete(txCtx, l.ID); delErr != nil {
					s.logger.ErrorContext(txCtx, "failed to discard loan after lending failed",
						"loan_id", l.ID, "error", delErr)
				}
				return err
			}
		}
		loan = l
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventLoanCreated),
			Subject: l.ID.String(),
			Details: map[string]string{
				"book_id":   l.BookID.String(),
				"member_id": l.MemberID.String(),
				"status":    string(l.Status),
				"due_date":  l.DueDate.Format(time.RFC3339),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan created",
		"loan_id", loan.ID,
		"book_id", loan.BookID,
		"member_id", loan.MemberID,
		"status", loan.Status,
		"due_date", loan.DueDate,
	)
	if s.metrics != nil {
		s.metrics.IncrementLoansCreated(string(loan.Status))
	}
	if loan.Status == models.LoanStatusActive {
		s.changed(ctx, changefeed.CollectionLoans, changefeed.CollectionBooks)
	} else {
		s.changed(ctx, changefeed.CollectionLoans)
	}
	return loan, nil
}

// RequestLoan files a PENDING loan on behalf of the member whose email matches the
// authenticated account, using the member self-service loan length.
func (s *Service) RequestLoan(ctx context.Context, bookID id.BookID, requesterEmail string) (*models.Loan, error) {
	member, err := s.members.FindByEmail(ctx, requesterEmail)
	if err != nil {
		return nil, wrapStoreErr(err, "no member is linked to this account", "", "failed to load member")
	}
	return s.CreateLoan(ctx, bookID, member.ID, models.LoanStatusPending, s.config.MemberRequestDays)
}

// ApproveLoan activates a PENDING loan and marks its book LOANED. Approving a loan in
// any other status is a Conflict. If the book went out on another loan in the meantime
// the approval fails with Unavailable and the loan stays PENDING.
func (s *Service) ApproveLoan(ctx context.Context, loanID id.LoanID) (loan *models.Loan, err error) {
	ctx, span := s.startSpan(ctx, "loan.ApproveLoan", attribute.String("loan_id", loanID.String()))
	defer func() { endSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		current, err := s.loans.FindByID(txCtx, loanID)
		if err != nil {
			return wrapStoreErr(err, "loan not found", "", "failed to load loan")
		}
		if err := current.CanApprove(); err != nil {
			return err
		}
		if err := s.lendBook(txCtx, current.BookID, now); err != nil {
			return err
		}
		l, err := s.loans.Execute(txCtx, loanID,
			func(l *models.Loan) error { return l.CanApprove() },
			func(l *models.Loan) { l.ApplyApproved() },
		)
		if err != nil {
			return wrapStoreErr(err, "loan not found", "", "failed to approve loan")
		}
		loan = l
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventLoanApproved),
			Subject: l.ID.String(),
			Details: map[string]string{"book_id": l.BookID.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan approved", "loan_id", loan.ID, "book_id", loan.BookID)
	if s.metrics != nil {
		s.metrics.IncrementLoansApproved()
	}
	s.changed(ctx, changefeed.CollectionLoans, changefeed.CollectionBooks)
	return loan, nil
}

// RejectLoan deletes a PENDING loan. The book is not touched.
func (s *Service) RejectLoan(ctx context.Context, loanID id.LoanID) (err error) {
	ctx, span := s.startSpan(ctx, "loan.RejectLoan", attribute.String("loan_id", loanID.String()))
	defer func() { endSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.loans.FindByID(txCtx, loanID)
		if err != nil {
			return wrapStoreErr(err, "loan not found", "", "failed to load loan")
		}
		if err := l.CanReject(); err != nil {
			return err
		}
		if err := s.loans.Delete(txCtx, loanID); err != nil {
			return wrapStoreErr(err, "loan not found", "", "failed to delete loan")
		}
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventLoanRejected),
			Subject: loanID.String(),
			Details: map[string]string{"book_id": l.BookID.String(), "member_id": l.MemberID.String()},
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "loan rejected", "loan_id", loanID)
	if s.metrics != nil {
		s.metrics.IncrementLoansRejected()
	}
	s.changed(ctx, changefeed.CollectionLoans)
	return nil
}

// ReturnLoan finishes an ACTIVE or OVERDUE loan. The fine is one PerLateDay for each
// whole day past due plus Damage when damaged; it is stored on the loan and added to
// the member's pending fines. The book goes back to AVAILABLE.
func (s *Service) ReturnLoan(ctx context.Context, loanID id.LoanID, damaged bool) (loan *models.Loan, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "loan.ReturnLoan",
		attribute.String("loan_id", loanID.String()),
		attribute.Bool("damaged", damaged),
	)
	defer func() {
		endSpan(span, err)
		if s.metrics != nil {
			s.metrics.ObserveReturn(start)
		}
	}()

	var lateDays int64
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		var fine int64
		l, err := s.loans.Execute(txCtx, loanID,
			func(l *models.Loan) error { return l.CanReturn() },
			func(l *models.Loan) {
				lateDays = models.LateDays(l.DueDate, now)
				fine = s.config.Fines.ComputeFine(l.DueDate, now, damaged)
				l.ApplyReturned(fine, now)
			},
		)
		if err != nil {
			return wrapStoreErr(err, "loan not found", "", "failed to return loan")
		}
		if _, err := s.books.Execute(txCtx, l.BookID,
			func(*catalogmodels.Book) error { return nil },
			func(b *catalogmodels.Book) { b.ApplyReturned(now) },
		); err != nil {
			return wrapStoreErr(err, "book not found", "", "failed to release book")
		}
		if fine > 0 {
			if _, err := s.members.Execute(txCtx, l.MemberID,
				func(*catalogmodels.Member) error { return nil },
				func(m *catalogmodels.Member) { m.ApplyFine(fine, now) },
			); err != nil {
				return wrapStoreErr(err, "member not found", "", "failed to charge fine")
			}
		}
		loan = l
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventLoanReturned),
			Subject: l.ID.String(),
			Details: map[string]string{
				"member_id": l.MemberID.String(),
				"late_days": strconv.FormatInt(lateDays, 10),
				"damaged":   strconv.FormatBool(damaged),
				"fine":      strconv.FormatInt(l.FineAmount, 10),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan returned",
		"loan_id", loan.ID,
		"late_days", lateDays,
		"damaged", damaged,
		"fine", loan.FineAmount,
	)
	if s.metrics != nil {
		s.metrics.RecordReturn(damaged, lateDays > 0, loan.FineAmount)
	}
	changes := []string{changefeed.CollectionLoans, changefeed.CollectionBooks}
	if loan.FineAmount > 0 {
		changes = append(changes, changefeed.CollectionMembers)
	}
	s.changed(ctx, changes...)
	return loan, nil
}

// lendBook re-checks availability under the row lock and marks the book LOANED.
func (s *Service) lendBook(ctx context.Context, bookID id.BookID, now time.Time) error {
	_, err := s.books.Execute(ctx, bookID,
		func(b *catalogmodels.Book) error { return b.CanLend() },
		func(b *catalogmodels.Book) { b.ApplyLoaned(now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			s.refused(dErrors.CodeUnavailable)
		}
		return wrapStoreErr(err, "book not found", "", "failed to lend book")
	}
	return nil
}

func (s *Service) refused(code dErrors.Code) {
	if s.metrics != nil {
		s.metrics.IncrementLoanRefused(string(code))
	}
}
