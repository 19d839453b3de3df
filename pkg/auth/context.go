package auth

import "context"

// identityKey is a private type for the identity context key.
type identityKey struct{}

// holderKey is a private type for the principal holder context key.
type holderKey struct{}

// principalHolder lets middleware running outside the auth layer see the
// identity the auth layer resolves deeper in the chain. The middleware
// writes before the handler runs and outer stages read after it returns,
// so access is sequential on the request goroutine.
type principalHolder struct {
	id *Identity
}

// HoldPrincipal prepares the context so an identity set further down the
// middleware chain stays visible to outer stages after the handler
// returns. Context values only flow inward; the holder carries the
// identity back out.
func HoldPrincipal(ctx context.Context) context.Context {
	return context.WithValue(ctx, holderKey{}, &principalHolder{})
}

// SetIdentity stores the authenticated identity in the context and in
// the principal holder, when one was installed by an outer stage.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	if h, ok := ctx.Value(holderKey{}).(*principalHolder); ok {
		h.id = id
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity. It falls
// back to the principal holder so outer middleware can resolve the
// identity after the handler returns. Returns nil if no identity is set.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	if h, ok := ctx.Value(holderKey{}).(*principalHolder); ok {
		return h.id
	}
	return nil
}

// Principal resolves the subject and tenant for a request, for analytics
// attribution. Both are empty when the request is unauthenticated.
func Principal(ctx context.Context) (subject, tenant string) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return "", ""
	}
	return id.Subject, id.TenantID()
}
