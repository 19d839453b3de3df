package token

import (
	"testing"
	"time"
)

func newTestIssuer(t *testing.T, clk *fakeClock) (*Issuer, *Codec) {
	t.Helper()
	codec := newTestCodec(t, clk)
	issuer, err := NewIssuer(codec, IssuerConfig{})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return issuer, codec
}

func TestNewIssuer_Validation(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clk)

	if _, err := NewIssuer(nil, IssuerConfig{}); err == nil {
		t.Error("nil codec accepted")
	}
	if _, err := NewIssuer(codec, IssuerConfig{AccessTTL: time.Hour, RefreshTTL: time.Minute}); err == nil {
		t.Error("refresh ttl shorter than access ttl accepted")
	}
}

func TestIssueAccess_ClaimContents(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	issuer, codec := newTestIssuer(t, clk)

	tok, err := issuer.IssueAccess(Subject{Subject: "u1", Email: "a@b.com", Role: "user"}, 0)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Type != TypeAccess {
		t.Errorf("type = %q, want access", claims.Type)
	}
	wantExp := clk.Now().Add(DefaultAccessTTL)
	if !claims.ExpiresAt.Equal(wantExp) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt, wantExp)
	}
	if claims.Subject != "u1" || claims.Email != "a@b.com" || claims.Role != "user" {
		t.Errorf("subject claims not preserved: %+v", claims)
	}
}

func TestIssueAccess_ExplicitTTL(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	issuer, codec := newTestIssuer(t, clk)

	tok, err := issuer.IssueAccess(Subject{Subject: "u1"}, 5*time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := clk.Now().Add(5 * time.Minute); !claims.ExpiresAt.Equal(want) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt, want)
	}
}

func TestIssueRefresh_LongerLifetime(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	issuer, codec := newTestIssuer(t, clk)

	tok, err := issuer.IssueRefresh(Subject{Subject: "u1"})
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Type != TypeRefresh {
		t.Errorf("type = %q, want refresh", claims.Type)
	}
	if want := clk.Now().Add(DefaultRefreshTTL); !claims.ExpiresAt.Equal(want) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt, want)
	}
}

func TestIssuePasswordReset(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	issuer, codec := newTestIssuer(t, clk)

	tok, err := issuer.IssuePasswordReset("a@b.com")
	if err != nil {
		t.Fatalf("IssuePasswordReset: %v", err)
	}
	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Type != TypePasswordReset {
		t.Errorf("type = %q, want password_reset", claims.Type)
	}
	if claims.Subject != "a@b.com" {
		t.Errorf("sub = %q, want email", claims.Subject)
	}
	if !claims.NotBefore.Equal(clk.Now()) {
		t.Errorf("nbf = %v, want issuance time", claims.NotBefore)
	}
	if want := clk.Now().Add(time.Hour); !claims.ExpiresAt.Equal(want) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt, want)
	}

	if _, err := issuer.IssuePasswordReset(""); err == nil {
		t.Error("empty email accepted")
	}
}
