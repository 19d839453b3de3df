package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock returns a clock function pinned to a mutable instant.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec(t *testing.T, clk *fakeClock) *Codec {
	t.Helper()
	codec, err := NewCodec(CodecConfig{Secret: testSecret, Clock: clk.Now})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestNewCodec_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CodecConfig
		wantErr bool
	}{
		{"valid default algorithm", CodecConfig{Secret: testSecret}, false},
		{"valid hs512", CodecConfig{Secret: testSecret, Algorithm: AlgHS512}, false},
		{"short secret", CodecConfig{Secret: []byte("tooshort")}, true},
		{"nil secret", CodecConfig{}, true},
		{"asymmetric algorithm rejected", CodecConfig{Secret: testSecret, Algorithm: "RS256"}, true},
		{"unknown algorithm", CodecConfig{Secret: testSecret, Algorithm: "none"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCodec: err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clk)

	in := Claims{
		Subject:   "u1",
		Email:     "u1@example.com",
		Role:      "user",
		Type:      TypeAccess,
		ExpiresAt: clk.Now().Add(30 * time.Minute),
		IssuedAt:  clk.Now(),
		Extra:     map[string]any{"accessibility_needs": []any{"screen_reader"}},
	}

	encoded, err := codec.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if parts := strings.Split(encoded, "."); len(parts) != 3 {
		t.Fatalf("encoded token has %d segments, want 3", len(parts))
	}

	out, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Subject != "u1" || out.Email != "u1@example.com" || out.Role != "user" {
		t.Errorf("subject claims = %q/%q/%q", out.Subject, out.Email, out.Role)
	}
	if out.Type != TypeAccess {
		t.Errorf("type = %q, want %q", out.Type, TypeAccess)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Errorf("exp = %v, want %v", out.ExpiresAt, in.ExpiresAt)
	}
	if _, ok := out.Extra["accessibility_needs"]; !ok {
		t.Error("extra claim not round-tripped")
	}
}

func TestCodec_Decode_Expired(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clk)

	encoded, err := codec.Encode(Claims{
		Subject:   "u1",
		Type:      TypeAccess,
		ExpiresAt: clk.Now().Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Still valid just before expiry.
	clk.Advance(29 * time.Minute)
	if _, err := codec.Decode(encoded); err != nil {
		t.Fatalf("Decode before expiry: %v", err)
	}

	// Strictly after expiry the decode must fail with ErrExpired.
	clk.Advance(2 * time.Minute)
	_, err = codec.Decode(encoded)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Decode after expiry: err = %v, want ErrExpired", err)
	}
}

func TestCodec_Decode_TamperedSignature(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clk)

	encoded, err := codec.Encode(Claims{Subject: "u1", Type: TypeAccess, ExpiresAt: clk.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Flip a character in the signature segment.
	last := encoded[len(encoded)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := encoded[:len(encoded)-1] + string(flipped)

	if _, err := codec.Decode(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("tampered token: err = %v, want ErrInvalidSignature", err)
	}
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clk)

	other, err := NewCodec(CodecConfig{
		Secret: []byte("ffffffffffffffffffffffffffffffff"),
		Clock:  clk.Now,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	encoded, err := other.Encode(Claims{Subject: "u1", Type: TypeAccess, ExpiresAt: clk.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := codec.Decode(encoded); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("foreign token: err = %v, want ErrInvalidSignature", err)
	}
}

func TestCodec_Decode_Malformed(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clk)

	for _, input := range []string{"", "not-a-token", "a.b"} {
		if _, err := codec.Decode(input); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): err = %v, want ErrMalformed", input, err)
		}
	}
}
