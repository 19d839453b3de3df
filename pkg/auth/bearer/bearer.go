// Package bearer provides an authenticator that validates signed access
// tokens from the Authorization header.
//
// Only access tokens are accepted: refresh and password-reset tokens
// presented as bearer credentials are rejected, never silently upgraded.
package bearer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/voucherpay/enterprise/pkg/auth"
	"github.com/voucherpay/enterprise/pkg/token"
)

// Authenticator validates bearer tokens with a token verifier.
type Authenticator struct {
	verifier *token.Verifier

	// ServiceTier assigned to authenticated callers. Empty means "default".
	ServiceTier string
}

// New creates a bearer token authenticator.
func New(verifier *token.Verifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Authenticate extracts a bearer token from the Authorization header and
// verifies it as an access token.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid, expired, or of the wrong type
//   - Yes: valid access token with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("empty bearer token")}
	}

	claims, err := a.verifier.Verify(tokenStr, token.TypeAccess)
	if err != nil {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid access token: %w", err),
		}
	}

	identity := &auth.Identity{
		Subject:     claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		ServiceTier: a.ServiceTier,
		Metadata:    make(map[string]string),
	}
	if tenant, ok := claims.Extra["tenant_id"].(string); ok && tenant != "" {
		identity.Metadata["tenant_id"] = tenant
	}

	return auth.AuthResult{Decision: auth.Yes, Identity: identity}
}
