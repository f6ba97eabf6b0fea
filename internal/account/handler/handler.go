package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"biblio/internal/account/models"
	"biblio/internal/account/service"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/httputil"
	authmw "biblio/pkg/platform/middleware/auth"
	"biblio/pkg/requestcontext"
)

// Service defines the account operations exposed over HTTP.
type Service interface {
	RequestMembership(ctx context.Context, in service.MembershipInput) (*models.Account, error)
	ApproveAccount(ctx context.Context, accountID id.AccountID) (*service.ApprovalResult, error)
	RejectAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	CompleteRegistration(ctx context.Context, token, password string) (*models.Account, error)
	CreateAccount(ctx context.Context, in service.AccountInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	ChangePassword(ctx context.Context, accountID id.AccountID, current, next string) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	ListAccounts(ctx context.Context, status models.AccountStatus) ([]*models.Account, error)
}

// Handler serves login, membership and account administration endpoints.
type Handler struct {
	accounts Service
	logger   *slog.Logger
}

func New(accounts Service, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

// RegisterPublic mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/membership-requests", h.handleRequestMembership)
	r.Post("/auth/complete-registration", h.handleCompleteRegistration)
}

// Register mounts the authenticated endpoints. r must already enforce authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/password", h.handleChangePassword)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(h.logger, id.RoleLibrarian))
		r.Get("/accounts", h.handleListAccounts)
		r.Post("/accounts", h.handleCreateAccount)
		r.Post("/accounts/{id}/approve", h.handleApprove)
		r.Post("/accounts/{id}/reject", h.handleReject)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid login request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid login request", err)
		return
	}
	result, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(ctx, w, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(result))
}

func (h *Handler) handleRequestMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req MembershipRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid membership request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid membership request", err)
		return
	}
	account, err := h.accounts.RequestMembership(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to request membership", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toAccountResponse(account))
}

func (h *Handler) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CompleteRegistrationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid registration request", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid registration request", err)
		return
	}
	account, err := h.accounts.CompleteRegistration(ctx, req.Token, req.Password)
	if err != nil {
		h.fail(ctx, w, "failed to complete registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.accounts.GetAccount(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to load account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid change password request", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid change password request", err)
		return
	}
	if err := h.accounts.ChangePassword(ctx, requestcontext.AccountID(ctx), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(ctx, w, "failed to change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var status models.AccountStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseAccountStatus(raw)
		if err != nil {
			h.fail(ctx, w, "invalid account status filter", err)
			return
		}
		status = parsed
	}
	accounts, err := h.accounts.ListAccounts(ctx, status)
	if err != nil {
		h.fail(ctx, w, "failed to list accounts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(accounts, toAccountResponse))
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid create account request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create account request", err)
		return
	}
	account, err := h.accounts.CreateAccount(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to create account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	result, err := h.accounts.ApproveAccount(ctx, accountID)
	if err != nil {
		h.fail(ctx, w, "failed to approve account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApprovalResponse(result))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.RejectAccount(ctx, accountID)
	if err != nil {
		h.fail(ctx, w, "failed to reject account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	accountID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(r.Context(), w, "invalid account id", dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return id.AccountID{}, false
	}
	return accountID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogAndWriteError(ctx, h.logger, w, msg, err)
}
