// Package requestcontext carries request-scoped values (principal, client metadata,
// request id, request clock) through context without depending on net/http.
//
// Middleware writes them; services and stores read them:
//
//	accountID := requestcontext.AccountID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipal(ctx, accountID, "ana@biblioteca.org", id.RoleMember)
package requestcontext

import (
	"context"
	"time"

	id "biblio/pkg/domain"
)

type (
	principalKey   struct{}
	clientKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

type principal struct {
	accountID id.AccountID
	email     string
	role      id.Role
}

type client struct {
	ip        string
	userAgent string
}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

// AccountID is the authenticated account, or the nil id when unauthenticated.
func AccountID(ctx context.Context) id.AccountID { return principalFrom(ctx).accountID }

func Email(ctx context.Context) string { return principalFrom(ctx).email }

// Role is empty when unauthenticated.
func Role(ctx context.Context) id.Role { return principalFrom(ctx).role }

func WithPrincipal(ctx context.Context, accountID id.AccountID, email string, role id.Role) context.Context {
	return context.WithValue(ctx, principalKey{}, principal{accountID: accountID, email: email, role: role})
}

func ClientIP(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(client)
	return c.ip
}

func UserAgent(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(client)
	return c.userAgent
}

// WithClientMetadata stores the caller's IP and User-Agent. Service tests use it in
// place of the metadata middleware.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, client{ip: clientIP, userAgent: userAgent})
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now is the request clock, falling back to time.Now for workers and the CLI.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins "now" for a request or a sweep batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
