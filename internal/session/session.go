// Package session carries the authenticated identity of a request.
package session

import "context"

// Session is the identity resolved from a bearer token.
type Session struct {
	UserID string
	Token  string
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by the auth middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
