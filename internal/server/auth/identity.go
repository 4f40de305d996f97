// Package auth issues and verifies session tokens, hashes passwords and
// carries the caller's identity through a request context.
package auth

import "context"

// Identity is the authenticated caller. The zero value is anonymous.
type Identity struct {
	UserID string
	Email  string
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, or the anonymous identity.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
