package auth

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "biblio/pkg/domain"
	"biblio/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (v stubValidator) ValidateToken(string) (*Claims, error) {
	return v.claims, v.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRequireAuth(t *testing.T) {
	accountID := uuid.New()
	var seen id.AccountID
	var seenRole id.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.AccountID(r.Context())
		seenRole = requestcontext.Role(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		h := RequireAuth(stubValidator{}, discardLogger())(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		h := RequireAuth(stubValidator{err: errors.New("bad sig")}, discardLogger())(next)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token populates principal", func(t *testing.T) {
		v := stubValidator{claims: &Claims{AccountID: accountID.String(), Email: "a@b.co", Role: "MEMBER"}}
		h := RequireAuth(v, discardLogger())(next)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id.AccountID(accountID), seen)
		assert.Equal(t, id.RoleMember, seenRole)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireRole(discardLogger(), id.RoleLibrarian)(next)

	t.Run("member is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), id.NewAccountID(), "m@x.co", id.RoleMember))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("librarian passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), id.NewAccountID(), "l@x.co", id.RoleLibrarian))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
