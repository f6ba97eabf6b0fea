package models

import (
	"time"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "PENDING"
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusFinished LoanStatus = "FINISHED"
	LoanStatusOverdue  LoanStatus = "OVERDUE"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusActive, LoanStatusFinished, LoanStatusOverdue:
		return true
	}
	return false
}

// IsOutstanding reports whether a loan in this status still holds its book or member.
func (s LoanStatus) IsOutstanding() bool {
	return s == LoanStatusPending || s == LoanStatusActive || s == LoanStatusOverdue
}

// IsOut reports whether the book is physically with the member.
func (s LoanStatus) IsOut() bool {
	return s == LoanStatusActive || s == LoanStatusOverdue
}

func ParseLoanStatus(s string) (LoanStatus, error) {
	status := LoanStatus(s)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of PENDING, ACTIVE, FINISHED, OVERDUE")
	}
	return status, nil
}

// OutstandingStatuses are the statuses that block deleting a book or member.
var OutstandingStatuses = []LoanStatus{LoanStatusPending, LoanStatusActive, LoanStatusOverdue}

// Loan records one book lent to one member.
//
// Invariants:
//   - DueDate = StartDate + loan days, loan days >= 1
//   - ReturnDate is set iff Status is FINISHED
//   - FineAmount is zero until return and never negative
//   - BookTitle and BookISBN are snapshots taken at creation
type Loan struct {
	ID         id.LoanID   `json:"id"`
	BookID     id.BookID   `json:"book_id"`
	MemberID   id.MemberID `json:"member_id"`
	BookTitle  string      `json:"book_title"`
	BookISBN   string      `json:"book_isbn"`
	StartDate  time.Time   `json:"start_date"`
	DueDate    time.Time   `json:"due_date"`
	ReturnDate *time.Time  `json:"return_date,omitempty"`
	Status     LoanStatus  `json:"status"`
	FineAmount int64       `json:"fine_amount"`
}

func NewLoan(loanID id.LoanID, bookID id.BookID, memberID id.MemberID, title, isbn string, status LoanStatus, loanDays int, now time.Time) (*Loan, error) {
	if status != LoanStatusPending && status != LoanStatusActive {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "initial status must be PENDING or ACTIVE")
	}
	if loanDays < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "loan days must be at least 1")
	}
	return &Loan{
		ID:        loanID,
		BookID:    bookID,
		MemberID:  memberID,
		BookTitle: title,
		BookISBN:  isbn,
		StartDate: now,
		DueDate:   now.AddDate(0, 0, loanDays),
		Status:    status,
	}, nil
}

func (l *Loan) CanApprove() error {
	if l.Status != LoanStatusPending {
		return dErrors.New(dErrors.CodeConflict, "only pending loans can be approved")
	}
	return nil
}

func (l *Loan) ApplyApproved() {
	l.Status = LoanStatusActive
}

func (l *Loan) CanReject() error {
	if l.Status != LoanStatusPending {
		return dErrors.New(dErrors.CodeConflict, "only pending loans can be rejected")
	}
	return nil
}

func (l *Loan) CanReturn() error {
	if !l.Status.IsOut() {
		return dErrors.New(dErrors.CodeConflict, "only active or overdue loans can be returned")
	}
	return nil
}

// ApplyReturned finishes the loan with the given fine.
func (l *Loan) ApplyReturned(fine int64, now time.Time) {
	returned := now
	l.ReturnDate = &returned
	l.Status = LoanStatusFinished
	l.FineAmount = fine
}

// IsOverdueAt reports whether an ACTIVE loan is past due. OVERDUE loans are already marked.
func (l *Loan) IsOverdueAt(now time.Time) bool {
	return l.Status == LoanStatusActive && l.DueDate.Before(now)
}

func (l *Loan) CanMarkOverdue(now time.Time) error {
	if !l.IsOverdueAt(now) {
		return dErrors.New(dErrors.CodeConflict, "loan is not past due")
	}
	return nil
}

func (l *Loan) ApplyOverdue() {
	l.Status = LoanStatusOverdue
}
