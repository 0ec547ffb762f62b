package domain

import "context"

// LocalOwnerID is the owner every request runs as when authentication is off.
const LocalOwnerID = "local"

type ownerCtxKey struct{}

// WithOwner returns a context carrying the authenticated owner ID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, ownerID)
}

// OwnerFromContext returns the owner ID stored in ctx, or "" if absent.
func OwnerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerCtxKey{}).(string)
	return id
}
