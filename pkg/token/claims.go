package token

import "time"

// Type discriminates the three token kinds the platform issues. Every
// verifier call site checks the type against the one it expects; a refresh
// token must never be accepted where an access token is required.
type Type string

const (
	// TypeAccess marks short-lived tokens presented on API requests.
	TypeAccess Type = "access"

	// TypeRefresh marks long-lived tokens exchanged for new access tokens.
	TypeRefresh Type = "refresh"

	// TypePasswordReset marks one-hour tokens embedded in reset links.
	TypePasswordReset Type = "password_reset"
)

// Wire claim names. These are a stable contract with token consumers and
// must not change.
const (
	claimSubject   = "sub"
	claimEmail     = "email"
	claimRole      = "role"
	claimType      = "type"
	claimExpiresAt = "exp"
	claimNotBefore = "nbf"
	claimIssuedAt  = "iat"
)

// Subject carries the caller-supplied identity claims merged into access
// and refresh tokens.
type Subject struct {
	// Subject is the unique user identifier (sub claim).
	Subject string

	// Email is the user's email address.
	Email string

	// Role is the user's platform role (e.g. "user", "admin").
	Role string

	// Extra holds forward-compatible additional claims. Keys colliding
	// with the reserved wire names are ignored during encoding.
	Extra map[string]any
}

// Claims is the normalized, typed view of a decoded token payload.
// Instances are immutable once returned by the codec.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	Type      Type
	ExpiresAt time.Time
	NotBefore time.Time
	IssuedAt  time.Time

	// Extra holds claims outside the fixed set above.
	Extra map[string]any
}

// reservedClaims lists wire names owned by this package; Extra entries
// using them are dropped rather than allowed to shadow typed fields.
var reservedClaims = map[string]struct{}{
	claimSubject:   {},
	claimEmail:     {},
	claimRole:      {},
	claimType:      {},
	claimExpiresAt: {},
	claimNotBefore: {},
	claimIssuedAt:  {},
}
