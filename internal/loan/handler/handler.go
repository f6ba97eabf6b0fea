package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogmodels "biblio/internal/catalog/models"
	"biblio/internal/loan/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/httputil"
	authmw "biblio/pkg/platform/middleware/auth"
	"biblio/pkg/requestcontext"
)

// Service defines the loan operations exposed over HTTP.
type Service interface {
	CreateLoan(ctx context.Context, bookID id.BookID, memberID id.MemberID, status models.LoanStatus, loanDays int) (*models.Loan, error)
	RequestLoan(ctx context.Context, bookID id.BookID, requesterEmail string) (*models.Loan, error)
	ApproveLoan(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	RejectLoan(ctx context.Context, loanID id.LoanID) error
	ReturnLoan(ctx context.Context, loanID id.LoanID, damaged bool) (*models.Loan, error)
	SweepOverdue(ctx context.Context) (int, error)
	PayFine(ctx context.Context, memberID id.MemberID, amount int64) (*catalogmodels.Member, error)
	GetLoan(ctx context.Context, loanID id.LoanID) (*models.LoanDetails, error)
	ListLoans(ctx context.Context) ([]models.LoanDetails, error)
	ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.LoanDetails, error)
	ListActiveLoans(ctx context.Context) ([]models.LoanDetails, error)
	ListLoansByMember(ctx context.Context, memberID id.MemberID) ([]models.LoanDetails, error)
	ListLoansByBook(ctx context.Context, bookID id.BookID) ([]models.LoanDetails, error)
	ListLoansForEmail(ctx context.Context, email string) ([]models.LoanDetails, error)
	ListMembersWithPendingFines(ctx context.Context) ([]*catalogmodels.Member, error)
}

// Feed streams loan snapshots. changefeed.Feed satisfies it.
type Feed interface {
	Subscribe(filter func(models.LoanDetails) bool, callback func([]models.LoanDetails)) (unsubscribe func())
}

// Handler serves the loan endpoints.
type Handler struct {
	loans  Service
	feed   Feed
	logger *slog.Logger
}

func New(loans Service, feed Feed, logger *slog.Logger) *Handler {
	return &Handler{loans: loans, feed: feed, logger: logger}
}

// Register mounts the loan routes. r must already enforce authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(h.logger, id.RoleLibrarian))
		r.Get("/loans", h.handleListLoans)
		r.Post("/loans", h.handleCreateLoan)
		r.Post("/loans/sweep", h.handleSweep)
		r.Get("/loans/{id}", h.handleGetLoan)
		r.Post("/loans/{id}/approve", h.handleApproveLoan)
		r.Post("/loans/{id}/reject", h.handleRejectLoan)
		r.Post("/loans/{id}/return", h.handleReturnLoan)
		r.Get("/members/with-fines", h.handleListMembersWithFines)
		r.Post("/members/{id}/payments", h.handlePayFine)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(h.logger, id.RoleMember))
		r.Get("/me/loans", h.handleListMyLoans)
		r.Post("/me/loans", h.handleRequestLoan)
	})
}

// RegisterStream mounts the long-lived SSE endpoint. r must enforce authentication
// and must not apply a request timeout.
func (h *Handler) RegisterStream(r chi.Router) {
	r.With(authmw.RequireRole(h.logger, id.RoleLibrarian)).Get("/loans/stream", h.handleStream)
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	var (
		loans []models.LoanDetails
		err   error
	)
	switch {
	case q.Get("member_id") != "":
		memberID, parseErr := id.ParseMemberID(q.Get("member_id"))
		if parseErr != nil {
			h.fail(ctx, w, "invalid member id filter", parseErr)
			return
		}
		loans, err = h.loans.ListLoansByMember(ctx, memberID)
	case q.Get("book_id") != "":
		bookID, parseErr := id.ParseBookID(q.Get("book_id"))
		if parseErr != nil {
			h.fail(ctx, w, "invalid book id filter", parseErr)
			return
		}
		loans, err = h.loans.ListLoansByBook(ctx, bookID)
	case q.Get("active") == "true":
		loans, err = h.loans.ListActiveLoans(ctx)
	case q.Get("status") != "":
		status, parseErr := models.ParseLoanStatus(q.Get("status"))
		if parseErr != nil {
			h.fail(ctx, w, "invalid loan status filter", parseErr)
			return
		}
		loans, err = h.loans.ListLoansByStatus(ctx, status)
	default:
		loans, err = h.loans.ListLoans(ctx)
	}
	if err != nil {
		h.fail(ctx, w, "failed to list loans", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(loans, toLoanDetailsResponse))
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid loan id", err)
		return
	}
	loan, err := h.loans.GetLoan(ctx, loanID)
	if err != nil {
		h.fail(ctx, w, "failed to get loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanDetailsResponse(*loan))
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateLoanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid create loan request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create loan request", err)
		return
	}
	loan, err := h.loans.CreateLoan(ctx, req.bookID, req.memberID, req.status, req.LoanDays)
	if err != nil {
		h.fail(ctx, w, "failed to create loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (h *Handler) handleApproveLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid loan id", err)
		return
	}
	loan, err := h.loans.ApproveLoan(ctx, loanID)
	if err != nil {
		h.fail(ctx, w, "failed to approve loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *Handler) handleRejectLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid loan id", err)
		return
	}
	if err := h.loans.RejectLoan(ctx, loanID); err != nil {
		h.fail(ctx, w, "failed to reject loan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReturnLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid loan id", err)
		return
	}
	var req ReturnLoanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !isEmptyBody(err) {
		h.fail(ctx, w, "invalid return loan request", err)
		return
	}
	loan, err := h.loans.ReturnLoan(ctx, loanID, req.Damaged)
	if err != nil {
		h.fail(ctx, w, "failed to return loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	marked, err := h.loans.SweepOverdue(ctx)
	if err != nil {
		h.fail(ctx, w, "overdue sweep failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SweepResponse{Marked: marked})
}

func (h *Handler) handleListMembersWithFines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	members, err := h.loans.ListMembersWithPendingFines(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list members with fines", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(members, toMemberResponse))
}

func (h *Handler) handlePayFine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid member id", err)
		return
	}
	var req PaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid payment request", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid payment request", err)
		return
	}
	member, err := h.loans.PayFine(ctx, memberID, req.Amount)
	if err != nil {
		h.fail(ctx, w, "failed to record payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMemberResponse(member))
}

func (h *Handler) handleListMyLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loans, err := h.loans.ListLoansForEmail(ctx, requestcontext.Email(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to list own loans", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(loans, toLoanDetailsResponse))
}

func (h *Handler) handleRequestLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RequestLoanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid loan request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid loan request", err)
		return
	}
	loan, err := h.loans.RequestLoan(ctx, req.bookID, requestcontext.Email(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to request loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogAndWriteError(ctx, h.logger, w, msg, err)
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
