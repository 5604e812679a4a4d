package session

import (
	"context"
	"time"

	"github.com/spec-kit/community-hub/internal/domain"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	cookieSinkKey
)

// CookieSink lets resolvers deliver or discard the session cookie without
// holding a transport handle directly.
type CookieSink interface {
	SetSessionCookie(token string, expiresAt time.Time)
	ClearSessionCookie()
}

// WithCookieSink attaches the response cookie writer to the request context.
func WithCookieSink(ctx context.Context, sink CookieSink) context.Context {
	return context.WithValue(ctx, cookieSinkKey, sink)
}

// CookieSinkFromContext retrieves the cookie writer, if any.
func CookieSinkFromContext(ctx context.Context) (CookieSink, bool) {
	sink, ok := ctx.Value(cookieSinkKey).(CookieSink)
	return sink, ok
}

// WithIdentity attaches a verified identity to the request context.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the verified caller, if any. A missing entry
// means the request is anonymous, which is never an error by itself.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*domain.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
