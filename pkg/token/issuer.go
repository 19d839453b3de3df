package token

import (
	"errors"
	"time"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultResetTTL   = time.Hour
)

// IssuerConfig holds the lifetimes applied to newly minted tokens.
// Zero values fall back to the package defaults.
type IssuerConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Issuer builds access, refresh, and password-reset tokens. It performs
// no storage writes; a token exists only in its returned string form.
type Issuer struct {
	codec  *Codec
	config IssuerConfig
}

// NewIssuer creates an issuer bound to the given codec.
func NewIssuer(codec *Codec, cfg IssuerConfig) (*Issuer, error) {
	if codec == nil {
		return nil, errors.New("issuer requires a codec")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 || cfg.ResetTTL < 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh lifetime must exceed access lifetime")
	}
	return &Issuer{codec: codec, config: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.config.AccessTTL
}

// IssueAccess mints an access token for the subject. A non-positive ttl
// uses the configured default.
func (i *Issuer) IssueAccess(sub Subject, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.config.AccessTTL
	}
	now := i.codec.Now()
	return i.codec.Encode(Claims{
		Subject:   sub.Subject,
		Email:     sub.Email,
		Role:      sub.Role,
		Type:      TypeAccess,
		ExpiresAt: now.Add(ttl),
		IssuedAt:  now,
		Extra:     sub.Extra,
	})
}

// IssueRefresh mints a refresh token for the subject using the configured
// refresh lifetime.
func (i *Issuer) IssueRefresh(sub Subject) (string, error) {
	now := i.codec.Now()
	return i.codec.Encode(Claims{
		Subject:   sub.Subject,
		Email:     sub.Email,
		Role:      sub.Role,
		Type:      TypeRefresh,
		ExpiresAt: now.Add(i.config.RefreshTTL),
		IssuedAt:  now,
		Extra:     sub.Extra,
	})
}

// IssuePasswordReset mints a one-hour reset token for the email address.
// The nbf claim is set to issuance time so the token cannot be presented
// before it exists.
func (i *Issuer) IssuePasswordReset(email string) (string, error) {
	if email == "" {
		return "", errors.New("password reset requires an email")
	}
	now := i.codec.Now()
	return i.codec.Encode(Claims{
		Subject:   email,
		Type:      TypePasswordReset,
		ExpiresAt: now.Add(i.config.ResetTTL),
		NotBefore: now,
		IssuedAt:  now,
	})
}
