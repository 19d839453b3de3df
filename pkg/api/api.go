package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/voucherpay/enterprise/pkg/password"
	"github.com/voucherpay/enterprise/pkg/storage"
	"github.com/voucherpay/enterprise/pkg/token"
	"github.com/voucherpay/enterprise/pkg/totp"
	"github.com/voucherpay/enterprise/pkg/transport"
)

// Version is the published platform API version.
const Version = "1.0.0"

const maxBodySize = 1 << 20 // 1 MB

// Handlers serves all platform routes. The zero value is not usable;
// construct with NewHandlers.
type Handlers struct {
	store    storage.UserStore
	hasher   *password.Hasher
	issuer   *token.Issuer
	verifier *token.Verifier
	totp     *totp.Service
	logger   *slog.Logger
}

// NewHandlers wires the route surface to its collaborators.
func NewHandlers(store storage.UserStore, hasher *password.Hasher, issuer *token.Issuer, verifier *token.Verifier, totpSvc *totp.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		totp:     totpSvc,
		logger:   logger,
	}
}

// Routes returns the mux with every platform endpoint registered.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", h.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", h.handleMe)
	mux.HandleFunc("POST /api/v1/auth/2fa/setup", h.handleTwoFactorSetup)
	mux.HandleFunc("POST /api/v1/auth/2fa/verify", h.handleTwoFactorVerify)
	mux.HandleFunc("POST /api/v1/auth/forgot-password", h.handleForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/reset-password", h.handleResetPassword)

	mux.HandleFunc("GET /api/v1/users", h.handleUsers)
	mux.HandleFunc("GET /api/v1/users/profile", h.handleUserProfile)
	mux.HandleFunc("GET /api/v1/jobs", h.handleJobs)
	mux.HandleFunc("GET /api/v1/finance", h.handleFinance)
	mux.HandleFunc("GET /api/v1/energy", h.handleEnergy)
	mux.HandleFunc("GET /api/v1/carbon", h.handleCarbon)
	mux.HandleFunc("GET /api/v1/ai", h.handleAI)
	mux.HandleFunc("GET /api/v1/policy", h.handlePolicy)
	mux.HandleFunc("GET /api/v1/analytics", h.handleAnalyticsOverview)

	mux.HandleFunc("GET /api/v1/accessibility", h.handleAccessibilityOverview)
	mux.HandleFunc("GET /api/v1/accessibility/assessment", h.handleAssessmentForm)
	mux.HandleFunc("POST /api/v1/accessibility/assessment", h.handleAssessmentSubmit)
	mux.HandleFunc("GET /api/v1/accessibility/audit", h.handleAccessibilityAudit)
	mux.HandleFunc("GET /api/v1/accessibility/guidelines", h.handleAccessibilityGuidelines)

	return mux
}

// decodeBody reads a JSON request body into dst. Returns a client error
// suitable for WriteError on failure.
func decodeBody(r *http.Request, dst any) *transport.APIError {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return transport.NewInvalidRequestError("Unable to read request body")
	}
	if len(body) == 0 {
		return transport.NewInvalidRequestError("Request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return transport.NewInvalidRequestError("Request body must be valid JSON")
	}
	return nil
}

// storeError maps storage failures to wire errors without leaking
// internals.
func (h *Handlers) storeError(err error) *transport.APIError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return transport.NewNotFoundError("User not found")
	case errors.Is(err, storage.ErrConflict):
		return transport.NewConflictError("An account with this email or username already exists")
	default:
		h.logger.Error("storage operation failed", "error", err)
		return transport.NewServerError("Internal server error")
	}
}
