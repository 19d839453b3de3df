package apikey

import (
	"context"
	"net/http"
	"testing"

	"github.com/voucherpay/enterprise/pkg/auth"
)

func newTestAuth() *Authenticator {
	return New([]RawKeyEntry{
		{
			Key: "svc-analytics-key-1",
			Identity: auth.Identity{
				Subject:     "svc-analytics",
				Role:        "service",
				ServiceTier: "internal",
				Metadata:    map[string]string{"tenant_id": "org-1"},
			},
		},
		{
			Key: "svc-reporting-key-2",
			Identity: auth.Identity{
				Subject:     "svc-reporting",
				Role:        "service",
				ServiceTier: "internal",
			},
		},
	})
}

func TestValidKey(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderAPIKey, "svc-analytics-key-1")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "svc-analytics" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "svc-analytics")
	}
	if result.Identity.ServiceTier != "internal" {
		t.Errorf("ServiceTier = %q, want %q", result.Identity.ServiceTier, "internal")
	}
	if result.Identity.TenantID() != "org-1" {
		t.Errorf("TenantID = %q, want %q", result.Identity.TenantID(), "org-1")
	}
}

func TestInvalidKey(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderAPIKey, "svc-wrong-key")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No", result.Decision)
	}
}

func TestNoHeader(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain", result.Decision)
	}
}

func TestBearerHeaderIgnored(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer svc-analytics-key-1")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain (wrong header)", result.Decision)
	}
}

func TestSecondKey(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderAPIKey, "svc-reporting-key-2")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "svc-reporting" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "svc-reporting")
	}
}
