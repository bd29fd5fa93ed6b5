// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithOwner/OwnerFromContext for propagating the token subject

package auth

import "context"

// ownerKey is the key type for storing the owner id in context.Context.
type ownerKey struct{}

// WithOwner returns a new context carrying the authenticated owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner id, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}
