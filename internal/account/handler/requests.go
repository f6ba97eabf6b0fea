package handler

import (
	"strings"

	"biblio/internal/account/service"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

type MembershipRequest struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
}

func (r *MembershipRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.NationalID = strings.ReplaceAll(strings.TrimSpace(r.NationalID), ".", "")
}

func (r *MembershipRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if r.NationalID == "" {
		return dErrors.New(dErrors.CodeValidation, "national_id is required")
	}
	return nil
}

func (r *MembershipRequest) toInput() service.MembershipInput {
	return service.MembershipInput{Email: r.Email, FullName: r.FullName, NationalID: r.NationalID}
}

type CompleteRegistrationRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *CompleteRegistrationRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
		return dErrors.New(dErrors.CodeValidation, "passwords do not match")
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" || r.NewPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "current_password and new_password are required")
	}
	if r.CurrentPassword == r.NewPassword {
		return dErrors.New(dErrors.CodeValidation, "new password must differ from the current one")
	}
	return nil
}

// CreateAccountRequest is a librarian-created account. Role defaults to MEMBER.
type CreateAccountRequest struct {
	MembershipRequest
	Role     string `json:"role"`
	Password string `json:"password"`

	role id.Role
}

func (r *CreateAccountRequest) Normalize() {
	r.MembershipRequest.Normalize()
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = id.RoleMember.String()
	}
}

func (r *CreateAccountRequest) Validate() error {
	if err := r.MembershipRequest.Validate(); err != nil {
		return err
	}
	role, err := id.ParseRole(r.Role)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "role must be LIBRARIAN or MEMBER")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	r.role = role
	return nil
}

func (r *CreateAccountRequest) toInput() service.AccountInput {
	return service.AccountInput{
		MembershipInput: r.MembershipRequest.toInput(),
		Role:            r.role,
		Password:        r.Password,
	}
}
