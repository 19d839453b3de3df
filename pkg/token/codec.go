package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names accepted by the codec. The platform signs with a single
// shared secret, so only the HMAC family is supported.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
)

const minSecretLen = 32

// CodecConfig holds the process-wide signing configuration.
type CodecConfig struct {
	// Secret is the shared HMAC key. Required, at least 32 bytes.
	Secret []byte

	// Algorithm selects the HMAC variant. Default: HS256.
	Algorithm string

	// Clock supplies the current time for expiry checks. Default: time.Now.
	// Injected so tests can advance time deterministically.
	Clock func() time.Time
}

// Codec encodes and decodes signed compact tokens (three dot-separated
// base64url segments). It has no side effects and is safe for concurrent
// use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	clock  func() time.Time
}

// NewCodec validates the configuration and builds a codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretLen)
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "", AlgHS256:
		method = jwt.SigningMethodHS256
	case AlgHS384:
		method = jwt.SigningMethodHS384
	case AlgHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Codec{secret: cfg.Secret, method: method, clock: clock}, nil
}

// Now returns the codec's view of the current time.
func (c *Codec) Now() time.Time {
	return c.clock()
}

// Encode signs the claim set and returns the compact token string.
func (c *Codec) Encode(claims Claims) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims.Extra {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		mc[k] = v
	}

	if claims.Subject != "" {
		mc[claimSubject] = claims.Subject
	}
	if claims.Email != "" {
		mc[claimEmail] = claims.Email
	}
	if claims.Role != "" {
		mc[claimRole] = claims.Role
	}
	mc[claimType] = string(claims.Type)
	if !claims.ExpiresAt.IsZero() {
		mc[claimExpiresAt] = claims.ExpiresAt.Unix()
	}
	if !claims.NotBefore.IsZero() {
		mc[claimNotBefore] = claims.NotBefore.Unix()
	}
	if !claims.IssuedAt.IsZero() {
		mc[claimIssuedAt] = claims.IssuedAt.Unix()
	}

	return jwt.NewWithClaims(c.method, mc).SignedString(c.secret)
}

// Decode verifies the signature and expiry of a compact token and returns
// its normalized claims. Failures map to the package sentinels:
// ErrMalformed for input that is not a token, ErrExpired for an exp in the
// past, ErrInvalidSignature for everything else.
func (c *Codec) Decode(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.clock),
	)

	parsed, err := parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %v", ErrExpired, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidSignature
	}

	return normalize(mc), nil
}

// normalize converts raw map claims into the typed Claims view. Unknown
// claims land in Extra.
func normalize(mc jwt.MapClaims) Claims {
	claims := Claims{
		Subject: claimString(mc, claimSubject),
		Email:   claimString(mc, claimEmail),
		Role:    claimString(mc, claimRole),
		Type:    Type(claimString(mc, claimType)),
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if nbf, err := mc.GetNotBefore(); err == nil && nbf != nil {
		claims.NotBefore = nbf.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	for k, v := range mc {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		if claims.Extra == nil {
			claims.Extra = make(map[string]any)
		}
		claims.Extra[k] = v
	}

	return claims
}

// claimString extracts a string claim, returning "" when missing or not
// a string.
func claimString(mc jwt.MapClaims, key string) string {
	if s, ok := mc[key].(string); ok {
		return s
	}
	return ""
}
