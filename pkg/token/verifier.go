package token

import (
	"fmt"
	"log/slog"
)

// Verifier decodes tokens and enforces the type expected by each call
// site. Verification always fails closed: any doubt denies access.
type Verifier struct {
	codec  *Codec
	logger *slog.Logger
}

// NewVerifier creates a verifier bound to the given codec. A nil logger
// falls back to slog.Default.
func NewVerifier(codec *Codec, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{codec: codec, logger: logger}
}

// Verify decodes the token and checks that its type claim matches
// expected. The returned error is one of the package sentinels; callers
// at the HTTP boundary must collapse all of them into a single generic
// unauthenticated response.
func (v *Verifier) Verify(tokenStr string, expected Type) (Claims, error) {
	claims, err := v.codec.Decode(tokenStr)
	if err != nil {
		v.logger.Debug("token verification failed", "expected_type", string(expected), "error", err)
		return Claims{}, err
	}

	if claims.Type != expected {
		v.logger.Debug("token type mismatch", "expected_type", string(expected), "got_type", string(claims.Type))
		return Claims{}, fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, claims.Type, expected)
	}

	return claims, nil
}

// VerifyPasswordReset decodes a password-reset token and returns the email
// it was issued for. Unlike Verify it never returns an error for an
// invalid or expired token: the reset flow treats "no match" as a normal
// negative outcome, so the second return value is simply false.
func (v *Verifier) VerifyPasswordReset(tokenStr string) (string, bool) {
	claims, err := v.codec.Decode(tokenStr)
	if err != nil {
		v.logger.Debug("reset token rejected", "error", err)
		return "", false
	}
	if claims.Type != TypePasswordReset {
		v.logger.Debug("reset token rejected", "error", "wrong token type")
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
