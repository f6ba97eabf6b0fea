package handler

import (
	"time"

	"biblio/internal/account/models"
	"biblio/internal/account/service"
)

type AccountResponse struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	FullName             string     `json:"full_name"`
	NationalID           string     `json:"national_id"`
	Role                 string     `json:"role"`
	Status               string     `json:"status"`
	LastPasswordChangeAt *time.Time `json:"last_password_change_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:                   a.ID.String(),
		Email:                a.Email,
		FullName:             a.FullName,
		NationalID:           a.NationalID,
		Role:                 a.Role.String(),
		Status:               a.Status.String(),
		LastPasswordChangeAt: a.LastPasswordChangeAt,
		CreatedAt:            a.CreatedAt,
	}
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	Account     AccountResponse `json:"account"`
}

func toLoginResponse(r *service.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: r.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(r.ExpiresIn.Seconds()),
		Account:     toAccountResponse(r.Account),
	}
}

// ApprovalResponse includes the registration link so a librarian can hand it over
// when the email could not be sent.
type ApprovalResponse struct {
	Account         AccountResponse `json:"account"`
	EmailSent       bool            `json:"email_sent"`
	RegistrationURL string          `json:"registration_url,omitempty"`
}

func toApprovalResponse(r *service.ApprovalResult) ApprovalResponse {
	resp := ApprovalResponse{Account: toAccountResponse(r.Account), EmailSent: r.EmailSent}
	if !r.EmailSent {
		resp.RegistrationURL = r.RegistrationURL
	}
	return resp
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func toList[S any, T any](items []S, convert func(S) T) listResponse[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return listResponse[T]{Items: out, Count: len(out)}
}
