package models

import (
	"time"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

// Member is a library patron who can borrow books.
//
// Invariants:
//   - NationalID is 7 or 8 digits and unique
//   - MemberNumber is "SOC" plus three digits, unique, assigned once at creation
//   - PendingFines is never negative; a positive balance blocks new loans
type Member struct {
	ID           id.MemberID `json:"id"`
	Name         string      `json:"name"`
	NationalID   string      `json:"national_id"`
	MemberNumber string      `json:"member_number"`
	Email        string      `json:"email"`
	PendingFines int64       `json:"pending_fines"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func NewMember(memberID id.MemberID, name, nationalID, memberNumber, email string, now time.Time) (*Member, error) {
	if err := validateMemberDetails(name, nationalID, email); err != nil {
		return nil, err
	}
	if !id.IsValidMemberNumber(memberNumber) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member number must look like SOC001")
	}
	return &Member{
		ID:           memberID,
		Name:         name,
		NationalID:   nationalID,
		MemberNumber: memberNumber,
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyDetails replaces the editable fields. The member number and balance are kept.
func (m *Member) ApplyDetails(name, nationalID, email string, now time.Time) error {
	if err := validateMemberDetails(name, nationalID, email); err != nil {
		return err
	}
	m.Name = name
	m.NationalID = nationalID
	m.Email = email
	m.UpdatedAt = now
	return nil
}

// CanBorrow checks the member has no outstanding fines.
func (m *Member) CanBorrow() error {
	if m.PendingFines > 0 {
		return dErrors.New(dErrors.CodeIneligibleMember, "member has pending fines")
	}
	return nil
}

// ApplyFine adds a non-negative amount to the balance.
func (m *Member) ApplyFine(amount int64, now time.Time) {
	if amount <= 0 {
		return
	}
	m.PendingFines += amount
	m.UpdatedAt = now
}

// CanPay checks 0 < amount <= PendingFines.
func (m *Member) CanPay(amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "payment amount must be positive")
	}
	if amount > m.PendingFines {
		return dErrors.New(dErrors.CodeInvalidAmount, "payment exceeds pending fines")
	}
	return nil
}

// ApplyPayment subtracts a validated payment. Call CanPay first.
func (m *Member) ApplyPayment(amount int64, now time.Time) {
	m.PendingFines -= amount
	m.UpdatedAt = now
}

func validateMemberDetails(name, nationalID, email string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "name is required")
	}
	if !id.IsValidNationalID(nationalID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "national id must be 7 or 8 digits")
	}
	if !id.IsValidEmail(email) {
		return dErrors.New(dErrors.CodeInvariantViolation, "email is not valid")
	}
	return nil
}
