package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	id "biblio/pkg/domain"
	"biblio/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims are the principal facts the middleware needs from a validated token.
type Claims struct {
	AccountID string
	Email     string
	Role      string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the principal
// in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			accountID, err := id.ParseAccountID(claims.AccountID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token subject")
				return
			}
			role, err := id.ParseRole(claims.Role)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token role")
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, accountID, claims.Email, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the principal has one of roles.
// Must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.Role(ctx)
			if !slices.Contains(roles, role) {
				logger.WarnContext(ctx, "forbidden - role not allowed",
					"role", role,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
