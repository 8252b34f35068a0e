package identity

import (
	"context"
	"errors"
)

// ErrNoSession is returned when no authenticated user can be resolved.
var ErrNoSession = errors.New("no active session")

// Provider resolves the current session's user id, or none.
type Provider interface {
	CurrentUser(ctx context.Context) (uint, error)
}

type ctxKey struct{}

func WithUser(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func FromContext(ctx context.Context) (uint, bool) {
	v, ok := ctx.Value(ctxKey{}).(uint)
	return v, ok
}

// ContextProvider reads the user id the auth middleware stored in the
// request context.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (uint, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return 0, ErrNoSession
	}
	return id, nil
}
