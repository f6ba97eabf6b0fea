package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"biblio/internal/catalog/models"
	"biblio/internal/catalog/service"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/httputil"
	authmw "biblio/pkg/platform/middleware/auth"
)

// Service defines the catalog operations exposed over HTTP.
type Service interface {
	CreateBook(ctx context.Context, in service.BookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, bookID id.BookID, in service.BookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, bookID id.BookID) error
	GetBook(ctx context.Context, bookID id.BookID) (*models.Book, error)
	ListBooks(ctx context.Context) ([]*models.Book, error)
	ListBooksByStatus(ctx context.Context, status models.BookStatus) ([]*models.Book, error)
	CreateMember(ctx context.Context, in service.MemberInput) (*models.Member, error)
	UpdateMember(ctx context.Context, memberID id.MemberID, in service.MemberInput) (*models.Member, error)
	DeleteMember(ctx context.Context, memberID id.MemberID) error
	GetMember(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
	NextMemberNumber(ctx context.Context) (string, error)
}

// Handler serves the catalog endpoints.
type Handler struct {
	catalog Service
	logger  *slog.Logger
}

func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// Register mounts the catalog routes. r must already enforce authentication.
func (h *Handler) Register(r chi.Router) {
	librarian := authmw.RequireRole(h.logger, id.RoleLibrarian)

	r.Get("/books", h.handleListBooks)
	r.Get("/books/{id}", h.handleGetBook)
	r.With(librarian).Post("/books", h.handleCreateBook)
	r.With(librarian).Put("/books/{id}", h.handleUpdateBook)
	r.With(librarian).Delete("/books/{id}", h.handleDeleteBook)

	r.Group(func(r chi.Router) {
		r.Use(librarian)
		r.Get("/members", h.handleListMembers)
		r.Get("/members/next-number", h.handleNextMemberNumber)
		r.Post("/members", h.handleCreateMember)
		r.Get("/members/{id}", h.handleGetMember)
		r.Put("/members/{id}", h.handleUpdateMember)
		r.Delete("/members/{id}", h.handleDeleteMember)
	})
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		books []*models.Book
		err   error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, parseErr := models.ParseBookStatus(raw)
		if parseErr != nil {
			h.fail(ctx, w, "invalid book status filter", parseErr)
			return
		}
		books, err = h.catalog.ListBooksByStatus(ctx, status)
	} else {
		books, err = h.catalog.ListBooks(ctx)
	}
	if err != nil {
		h.fail(ctx, w, "failed to list books", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(books, toBookResponse))
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID, err := id.ParseBookID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid book id", err)
		return
	}
	book, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		h.fail(ctx, w, "failed to get book", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req BookRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid create book request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create book request", err)
		return
	}
	book, err := h.catalog.CreateBook(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to create book", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBookResponse(book))
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID, err := id.ParseBookID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid book id", err)
		return
	}
	var req BookRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid update book request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid update book request", err)
		return
	}
	book, err := h.catalog.UpdateBook(ctx, bookID, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to update book", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID, err := id.ParseBookID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid book id", err)
		return
	}
	if err := h.catalog.DeleteBook(ctx, bookID); err != nil {
		h.fail(ctx, w, "failed to delete book", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	members, err := h.catalog.ListMembers(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list members", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(members, ToMemberResponse))
}

func (h *Handler) handleNextMemberNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := h.catalog.NextMemberNumber(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to compute member number", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"member_number": number})
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid member id", err)
		return
	}
	member, err := h.catalog.GetMember(ctx, memberID)
	if err != nil {
		h.fail(ctx, w, "failed to get member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToMemberResponse(member))
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req MemberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid create member request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create member request", err)
		return
	}
	member, err := h.catalog.CreateMember(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to create member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ToMemberResponse(member))
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid member id", err)
		return
	}
	var req MemberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid update member request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid update member request", err)
		return
	}
	member, err := h.catalog.UpdateMember(ctx, memberID, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to update member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToMemberResponse(member))
}

func (h *Handler) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid member id", err)
		return
	}
	if err := h.catalog.DeleteMember(ctx, memberID); err != nil {
		h.fail(ctx, w, "failed to delete member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogAndWriteError(ctx, h.logger, w, msg, err)
}
