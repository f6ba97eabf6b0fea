package models

import (
	"strings"
	"time"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

// AccountStatus tracks an account through the membership workflow.
type AccountStatus string

const (
	AccountStatusPending     AccountStatus = "PENDING"
	AccountStatusProvisional AccountStatus = "PROVISIONAL"
	AccountStatusActive      AccountStatus = "ACTIVE"
	AccountStatusRejected    AccountStatus = "REJECTED"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusPending, AccountStatusProvisional, AccountStatusActive, AccountStatusRejected:
		return true
	}
	return false
}

func (s AccountStatus) String() string { return string(s) }

// ParseAccountStatus validates a status received at the transport boundary.
func ParseAccountStatus(s string) (AccountStatus, error) {
	status := AccountStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid account status")
	}
	return status, nil
}

// Account is a login identity. MEMBER accounts are linked to a catalog member by email
// once they become ACTIVE.
//
// Invariants:
//   - Email is unique across accounts
//   - PasswordHash is empty until the account is ACTIVE
//   - PENDING -> PROVISIONAL -> ACTIVE, or PENDING -> REJECTED
type Account struct {
	ID                   id.AccountID  `json:"id"`
	Email                string        `json:"email"`
	FullName             string        `json:"full_name"`
	NationalID           string        `json:"national_id"`
	Role                 id.Role       `json:"role"`
	Status               AccountStatus `json:"status"`
	PasswordHash         string        `json:"-"`
	LastPasswordChangeAt *time.Time    `json:"last_password_change_at,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// NewAccount builds a PENDING account. Callers activate librarian-created accounts
// right away with Activate.
func NewAccount(accountID id.AccountID, email, fullName, nationalID string, role id.Role, now time.Time) (*Account, error) {
	if !id.IsValidEmail(email) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is invalid")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full name is required")
	}
	if !id.IsValidNationalID(nationalID) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "national id must have 7 or 8 digits")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	return &Account{
		ID:         accountID,
		Email:      email,
		FullName:   fullName,
		NationalID: nationalID,
		Role:       role,
		Status:     AccountStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (a *Account) CanApprove() error {
	if a.Status != AccountStatusPending {
		return dErrors.New(dErrors.CodeConflict, "only pending accounts can be approved")
	}
	return nil
}

func (a *Account) ApplyApproved(now time.Time) {
	a.Status = AccountStatusProvisional
	a.UpdatedAt = now
}

func (a *Account) CanReject() error {
	if a.Status != AccountStatusPending {
		return dErrors.New(dErrors.CodeConflict, "only pending accounts can be rejected")
	}
	return nil
}

func (a *Account) ApplyRejected(now time.Time) {
	a.Status = AccountStatusRejected
	a.UpdatedAt = now
}

// CanActivate accepts PENDING accounts too, for librarian-created accounts that skip approval.
func (a *Account) CanActivate() error {
	if a.Status != AccountStatusProvisional && a.Status != AccountStatusPending {
		return dErrors.New(dErrors.CodeConflict, "account cannot be activated")
	}
	return nil
}

// Activate sets the first password and makes the account usable.
func (a *Account) Activate(passwordHash string, now time.Time) {
	a.Status = AccountStatusActive
	a.PasswordHash = passwordHash
	a.LastPasswordChangeAt = &now
	a.UpdatedAt = now
}

func (a *Account) CanLogin() bool {
	return a.Status == AccountStatusActive && a.PasswordHash != ""
}

// PasswordChangeWait returns how long until the password may change again; zero means now.
func (a *Account) PasswordChangeWait(cooldown time.Duration, now time.Time) time.Duration {
	if a.LastPasswordChangeAt == nil {
		return 0
	}
	wait := a.LastPasswordChangeAt.Add(cooldown).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func (a *Account) ApplyPassword(passwordHash string, now time.Time) {
	a.PasswordHash = passwordHash
	a.LastPasswordChangeAt = &now
	a.UpdatedAt = now
}

// IsMember reports whether activation should create a catalog member.
func (a *Account) IsMember() bool {
	return a.Role == id.RoleMember
}
