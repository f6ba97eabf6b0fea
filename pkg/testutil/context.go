package testutil

import (
	"net/http"

	id "biblio/pkg/domain"
	"biblio/pkg/requestcontext"
)

// WithPrincipal attaches the principal RequireAuth would store after validating a token.
func WithPrincipal(req *http.Request, accountID id.AccountID, email string, role id.Role) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), accountID, email, role))
}
