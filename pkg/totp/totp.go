// Package totp implements RFC 6238 time-based one-time passwords for the
// platform's two-factor flow: secret generation, the otpauth provisioning
// artifact (URI plus scannable QR image), and clock-skew tolerant code
// verification.
//
// The service never persists secrets. Activation is two-phase: the caller
// hands the generated secret to the user, and only after a submitted code
// verifies against it does the user-record store mark 2FA active.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// 160-bit secrets, 32 base32 characters.
const secretBytes = 20

const qrImageSize = 256

// Config holds TOTP parameters. Zero values fall back to the RFC 6238
// defaults used by the major authenticator apps.
type Config struct {
	// Issuer appears in authenticator apps next to the account label.
	Issuer string

	// Digits per code. Default: 6.
	Digits int

	// Period is the time-step length in seconds. Default: 30.
	Period int

	// Skew is the number of adjacent time steps accepted on either side
	// of the current one. Default: 1.
	Skew int

	// Algorithm is the HMAC hash: SHA1 (default), SHA256, or SHA512.
	Algorithm string

	// Clock supplies the current time. Default: time.Now.
	Clock func() time.Time
}

// Service generates and verifies one-time codes. Safe for concurrent use.
type Service struct {
	config Config
	clock  func() time.Time
}

// NewService validates the configuration and builds a service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("totp issuer is required")
	}
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Digits < 6 || cfg.Digits > 10 {
		return nil, fmt.Errorf("invalid totp digits %d", cfg.Digits)
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	if cfg.Period < 0 {
		return nil, fmt.Errorf("invalid totp period %d", cfg.Period)
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1
	}
	if cfg.Skew < 0 || cfg.Skew > 10 {
		return nil, fmt.Errorf("invalid totp skew %d", cfg.Skew)
	}
	if _, err := hmacFunc(cfg.Algorithm); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{config: cfg, clock: clock}, nil
}

// GenerateSecret returns a fresh cryptographically random secret as an
// unpadded base32 string.
func (s *Service) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating totp secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// Provisioning is the artifact handed to the user during 2FA setup. The
// manual-entry key is always present alongside the QR image so a
// non-visual user can configure an authenticator without scanning.
type Provisioning struct {
	// URI is the standard otpauth://totp provisioning URI.
	URI string

	// ManualKey is the raw base32 secret for manual entry.
	ManualKey string

	// PNG is the QR-encoded URI as a PNG image.
	PNG []byte
}

// Provision builds the otpauth URI for the account and renders it as a
// scannable QR code.
func (s *Service) Provision(account, secret string) (Provisioning, error) {
	if account == "" {
		return Provisioning{}, errors.New("account label is required")
	}
	if secret == "" {
		return Provisioning{}, errors.New("secret is required")
	}

	uri := s.ProvisioningURI(account, secret)

	png, err := qrcode.Encode(uri, qrcode.Medium, qrImageSize)
	if err != nil {
		return Provisioning{}, fmt.Errorf("rendering provisioning qr code: %w", err)
	}

	return Provisioning{URI: uri, ManualKey: secret, PNG: png}, nil
}

// ProvisioningURI returns the otpauth URI in the exact
// otpauth://totp/{issuer}:{account}?secret={secret}&issuer={issuer} shape.
// The parameter order is part of the interoperability contract, so the
// query string is built by hand rather than through url.Values.
func (s *Service) ProvisioningURI(account, secret string) string {
	label := url.PathEscape(s.config.Issuer + ":" + account)
	return "otpauth://totp/" + label +
		"?secret=" + secret +
		"&issuer=" + url.QueryEscape(s.config.Issuer)
}

// Verify checks a submitted code against the secret for the current time
// window. Malformed codes and secrets verify false rather than erroring.
func (s *Service) Verify(secret, code string) bool {
	return s.VerifyAt(secret, code, s.clock())
}

// VerifyAt is Verify with an explicit reference time. The code is
// accepted if it matches any time step within the configured skew window;
// comparison is constant time.
func (s *Service) VerifyAt(secret, code string, at time.Time) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != s.config.Digits || !isDigits(trimmed) {
		return false
	}

	key, err := decodeSecret(secret)
	if err != nil || len(key) == 0 {
		return false
	}

	baseStep := at.Unix() / int64(s.config.Period)
	for offset := -s.config.Skew; offset <= s.config.Skew; offset++ {
		step := baseStep + int64(offset)
		if step < 0 {
			continue
		}
		expected, err := hotp(key, step, s.config.Digits, s.config.Algorithm)
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(trimmed)) == 1 {
			return true
		}
	}

	return false
}

// CodeAt computes the expected code for the reference time. Exposed for
// the setup flow's own round-trip checks and for tests.
func (s *Service) CodeAt(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, at.Unix()/int64(s.config.Period), s.config.Digits, s.config.Algorithm)
}

// decodeSecret accepts padded or unpadded base32, case-insensitive.
func decodeSecret(secret string) ([]byte, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	normalized = strings.TrimRight(normalized, "=")
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
}

// hotp computes the RFC 4226 truncated HMAC code for one counter value.
func hotp(key []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported totp algorithm %q", algorithm)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
