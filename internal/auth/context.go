package auth

import "context"

// Identity is the authenticated API caller.
type Identity struct {
	Subject   string
	Role      Role
	Customers []string
}

// AllowsCustomer reports whether the identity may act on the customer. An
// empty customer scope means the token is not restricted.
func (id Identity) AllowsCustomer(customerID string) bool {
	if len(id.Customers) == 0 {
		return true
	}
	for _, allowed := range id.Customers {
		if allowed == customerID {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity attaches the caller identity to the request context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller identity, if any. Handlers behind
// exempt paths see none.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
