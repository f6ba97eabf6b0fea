package handler

import (
	"strings"

	"biblio/internal/loan/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

type CreateLoanRequest struct {
	BookID        string `json:"book_id"`
	MemberID      string `json:"member_id"`
	InitialStatus string `json:"initial_status"`
	LoanDays      int    `json:"loan_days"`

	bookID   id.BookID
	memberID id.MemberID
	status   models.LoanStatus
}

// Normalize trims ids and defaults the initial status to ACTIVE for librarian loans.
func (r *CreateLoanRequest) Normalize() {
	r.BookID = strings.TrimSpace(r.BookID)
	r.MemberID = strings.TrimSpace(r.MemberID)
	r.InitialStatus = strings.ToUpper(strings.TrimSpace(r.InitialStatus))
	if r.InitialStatus == "" {
		r.InitialStatus = string(models.LoanStatusActive)
	}
}

func (r *CreateLoanRequest) Validate() error {
	bookID, err := id.ParseBookID(r.BookID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "book_id must be a valid id")
	}
	memberID, err := id.ParseMemberID(r.MemberID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "member_id must be a valid id")
	}
	status := models.LoanStatus(r.InitialStatus)
	if status != models.LoanStatusPending && status != models.LoanStatusActive {
		return dErrors.New(dErrors.CodeValidation, "initial_status must be PENDING or ACTIVE")
	}
	if r.LoanDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "loan_days must not be negative")
	}
	r.bookID, r.memberID, r.status = bookID, memberID, status
	return nil
}

type RequestLoanRequest struct {
	BookID string `json:"book_id"`

	bookID id.BookID
}

func (r *RequestLoanRequest) Normalize() {
	r.BookID = strings.TrimSpace(r.BookID)
}

func (r *RequestLoanRequest) Validate() error {
	bookID, err := id.ParseBookID(r.BookID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "book_id must be a valid id")
	}
	r.bookID = bookID
	return nil
}

// ReturnLoanRequest may be sent with an empty body, meaning not damaged.
type ReturnLoanRequest struct {
	Damaged bool `json:"damaged"`
}

type PaymentRequest struct {
	Amount int64 `json:"amount"`
}

func (r *PaymentRequest) Validate() error {
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}
