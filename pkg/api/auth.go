package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/voucherpay/enterprise/pkg/auth"
	"github.com/voucherpay/enterprise/pkg/observability"
	"github.com/voucherpay/enterprise/pkg/storage"
	"github.com/voucherpay/enterprise/pkg/token"
	"github.com/voucherpay/enterprise/pkg/transport"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type twoFactorVerifyRequest struct {
	Code string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// subjectFor builds the token subject for a stored account. The tenant
// travels as an extra claim so the bearer authenticator can restore
// storage scoping on later requests.
func subjectFor(user *storage.UserRecord) token.Subject {
	sub := token.Subject{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	}
	if user.TenantID != "" {
		sub.Extra = map[string]any{"tenant_id": user.TenantID}
	}
	return sub
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		transport.WriteError(w, apiErr)
		return
	}
	if req.Username == "" || req.Password == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Username and password are required"))
		return
	}

	user, err := h.store.FindUserByIdentifier(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
			transport.WriteError(w, transport.NewAuthenticationError("Incorrect username or password"))
			return
		}
		transport.WriteError(w, h.storeError(err))
		return
	}

	ok, err := h.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil || !ok {
		observability.AuthFailuresTotal.WithLabelValues("invalid_password").Inc()
		transport.WriteError(w, transport.NewAuthenticationError("Incorrect username or password"))
		return
	}

	if user.TwoFactorEnabled {
		if req.TOTPCode == "" {
			transport.WriteError(w, transport.NewAuthenticationError("Two-factor code is required"))
			return
		}
		if !h.totp.Verify(user.TOTPSecret, req.TOTPCode) {
			observability.AuthFailuresTotal.WithLabelValues("invalid_totp").Inc()
			transport.WriteError(w, transport.NewAuthenticationError("Invalid two-factor code"))
			return
		}
	}

	sub := subjectFor(user)
	accessToken, err := h.issuer.IssueAccess(sub, 0)
	if err != nil {
		h.logger.Error("issuing access token", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}
	refreshToken, err := h.issuer.IssueRefresh(sub)
	if err != nil {
		h.logger.Error("issuing refresh token", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}
	observability.TokensIssuedTotal.WithLabelValues("access").Inc()
	observability.TokensIssuedTotal.WithLabelValues("refresh").Inc()

	h.logger.Info("user logged in", "subject", user.ID, "tenant_id", user.TenantID)

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "bearer",
		"expires_in":    int(h.issuer.AccessTTL().Seconds()),
		"user": map[string]any{
			"sub":   user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
		"accessibility": map[string]any{
			"wcag_compliant":               true,
			"screen_reader_optimized":      true,
			"supports_keyboard_navigation": true,
			"high_contrast_available":      true,
		},
		"empowerment_features": map[string]any{
			"social_security_assistance":   true,
			"housing_resources":            true,
			"business_funding":             true,
			"non_discrimination_reporting": true,
			"ai_assistance":                true,
		},
	})
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		transport.WriteError(w, apiErr)
		return
	}
	if req.Email == "" || req.Password == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Email and password are required"))
		return
	}
	if len(req.Password) < 8 {
		transport.WriteError(w, transport.NewUnprocessableError("Password must be at least 8 characters"))
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.Error("hashing password", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}

	user := &storage.UserRecord{
		Email:         req.Email,
		Username:      req.Username,
		FullName:      req.FullName,
		Role:          "user",
		TenantID:      req.TenantID,
		PasswordHash:  hash,
		Accessibility: storage.DefaultAccessibilityProfile(),
		Active:        true,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		transport.WriteError(w, h.storeError(err))
		return
	}

	h.logger.Info("user registered", "subject", user.ID, "tenant_id", user.TenantID)

	transport.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user_id": user.ID,
		"next_steps": []string{
			"Verify your email address",
			"Complete your accessibility profile",
			"Set up two-factor authentication (optional)",
			"Explore empowerment features",
		},
		"accessibility": map[string]any{
			"profile_setup_available":    true,
			"wcag_compliant_forms":       true,
			"screen_reader_instructions": "Use tab to navigate through registration form. All fields have descriptive labels.",
		},
	})
}

func (h *Handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		transport.WriteError(w, apiErr)
		return
	}
	if req.RefreshToken == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Refresh token is required"))
		return
	}

	claims, err := h.verifier.Verify(req.RefreshToken, token.TypeRefresh)
	if err != nil {
		observability.AuthFailuresTotal.WithLabelValues("invalid_refresh").Inc()
		transport.WriteError(w, transport.NewAuthenticationError("Invalid or expired refresh token"))
		return
	}

	sub := token.Subject{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
		Extra:   claims.Extra,
	}
	accessToken, err := h.issuer.IssueAccess(sub, 0)
	if err != nil {
		h.logger.Error("issuing access token", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}
	observability.TokensIssuedTotal.WithLabelValues("access").Inc()

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   int(h.issuer.AccessTTL().Seconds()),
	})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout acknowledges and lets the client
	// discard its copies.
	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Logged out successfully",
		"accessibility": map[string]any{
			"screen_reader_message": "You have been logged out successfully. Thank you for using VoucherPay Enterprise.",
			"redirect_suggestion":   "You will be redirected to the login page",
		},
	})
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		transport.WriteError(w, transport.NewAuthenticationError("Not authenticated"))
		return
	}

	// Service identities (API keys) have no account record; they get
	// the default profile.
	profile := storage.DefaultAccessibilityProfile()
	if user, err := h.store.FindUserByID(r.Context(), id.Subject); err == nil {
		profile = user.Accessibility
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.logger.Error("loading account", "subject", id.Subject, "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"sub":   id.Subject,
			"email": id.Email,
			"role":  id.Role,
		},
		"accessibility_profile": map[string]any{
			"screen_reader_user":   profile.ScreenReaderUser,
			"high_contrast_mode":   profile.HighContrastMode,
			"keyboard_navigation":  profile.KeyboardNavigation,
			"reduced_motion":       profile.ReducedMotion,
			"font_size_preference": profile.FontSize,
		},
		"empowerment_status": map[string]any{
			"profile_completed":             true,
			"accessibility_assessment_done": true,
			"empowerment_goals_set":         false,
			"connected_services":            []string{},
		},
	})
}

func (h *Handlers) handleTwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		transport.WriteError(w, transport.NewAuthenticationError("Not authenticated"))
		return
	}

	secret, err := h.totp.GenerateSecret()
	if err != nil {
		h.logger.Error("generating totp secret", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}

	account := id.Email
	if account == "" {
		account = id.Subject
	}
	prov, err := h.totp.Provision(account, secret)
	if err != nil {
		h.logger.Error("building totp provisioning", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}

	// The secret stays pending until a code is verified; only then does
	// two-factor become active.
	if err := h.store.SetTOTPSecret(r.Context(), id.Subject, secret); err != nil {
		transport.WriteError(w, h.storeError(err))
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"secret":           secret,
		"qr_code":          "data:image/png;base64," + base64.StdEncoding.EncodeToString(prov.PNG),
		"provisioning_uri": prov.URI,
		"manual_entry_key": prov.ManualKey,
		"instructions": map[string]any{
			"step_1":             "Install an authenticator app (Google Authenticator, Authy, etc.)",
			"step_2":             "Scan the QR code or enter the manual key",
			"step_3":             "Enter the 6-digit code from your app to verify setup",
			"accessibility_note": "QR code alternative: Use the manual entry key provided above",
		},
		"accessibility": map[string]any{
			"qr_code_alt_text":           "QR code for two-factor authentication setup",
			"manual_entry_available":     true,
			"screen_reader_instructions": "QR code image is provided. For manual entry, use the secret key displayed above.",
		},
	})
}

func (h *Handlers) handleTwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		transport.WriteError(w, transport.NewAuthenticationError("Not authenticated"))
		return
	}

	var req twoFactorVerifyRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		transport.WriteError(w, apiErr)
		return
	}
	if req.Code == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Verification code is required"))
		return
	}

	user, err := h.store.FindUserByID(r.Context(), id.Subject)
	if err != nil {
		transport.WriteError(w, h.storeError(err))
		return
	}
	if user.TOTPSecret == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Two-factor setup has not been started"))
		return
	}
	if !h.totp.Verify(user.TOTPSecret, req.Code) {
		observability.AuthFailuresTotal.WithLabelValues("invalid_totp").Inc()
		transport.WriteError(w, transport.NewInvalidRequestError("Invalid verification code"))
		return
	}

	if err := h.store.EnableTwoFactor(r.Context(), id.Subject); err != nil {
		transport.WriteError(w, h.storeError(err))
		return
	}

	codes, err := backupCodes(8)
	if err != nil {
		h.logger.Error("generating backup codes", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}

	h.logger.Info("two-factor enabled", "subject", id.Subject)

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Two-factor authentication verified successfully",
		"2fa_enabled":  true,
		"backup_codes": codes,
		"accessibility": map[string]any{
			"backup_codes_note": "Save these backup codes in a secure location. They can be used if you lose access to your authenticator app.",
		},
	})
}

func (h *Handlers) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		transport.WriteError(w, apiErr)
		return
	}
	if req.Email == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Email is required"))
		return
	}

	resetToken, err := h.issuer.IssuePasswordReset(req.Email)
	if err != nil {
		h.logger.Error("issuing password reset token", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}
	observability.TokensIssuedTotal.WithLabelValues("password_reset").Inc()

	// Email delivery is handled out of band; the token is logged so
	// operators can complete the loop in environments without a mailer.
	h.logger.Info("password reset requested", "email", req.Email, "reset_token", resetToken)

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Password reset instructions sent to your email",
		"email":   req.Email,
		"accessibility": map[string]any{
			"email_format":            "HTML and plain text versions available",
			"screen_reader_optimized": true,
			"clear_instructions":      "Email contains step-by-step instructions with clear headings",
		},
		"next_steps": []string{
			"Check your email inbox (and spam folder)",
			"Click the reset link or copy it to your browser",
			"Create a new secure password",
			"Log in with your new password",
		},
	})
}

func (h *Handlers) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		transport.WriteError(w, apiErr)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		transport.WriteError(w, transport.NewInvalidRequestError("Token and new password are required"))
		return
	}
	if len(req.NewPassword) < 8 {
		transport.WriteError(w, transport.NewUnprocessableError("Password must be at least 8 characters"))
		return
	}

	email, ok := h.verifier.VerifyPasswordReset(req.Token)
	if !ok {
		transport.WriteError(w, transport.NewInvalidRequestError("Invalid or expired reset token"))
		return
	}

	user, err := h.store.FindUserByIdentifier(r.Context(), email)
	if err != nil {
		// The token outlived the account it was issued for. Present the
		// same answer as a bad token.
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteError(w, transport.NewInvalidRequestError("Invalid or expired reset token"))
			return
		}
		transport.WriteError(w, h.storeError(err))
		return
	}

	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		h.logger.Error("hashing password", "error", err)
		transport.WriteError(w, transport.NewServerError("Internal server error"))
		return
	}
	if err := h.store.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		transport.WriteError(w, h.storeError(err))
		return
	}

	h.logger.Info("password reset completed", "subject", user.ID)

	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Password reset successfully",
		"email":   email,
		"accessibility": map[string]any{
			"login_ready":           true,
			"screen_reader_message": "Your password has been reset successfully. You can now log in with your new password.",
		},
		"next_steps": []string{
			"Log in with your new password",
			"Consider enabling two-factor authentication for added security",
		},
	})
}

// backupCodes generates n single-use recovery codes. They are returned to
// the caller once and are not persisted server-side yet.
func backupCodes(n int) ([]string, error) {
	codes := make([]string, n)
	for i := range codes {
		v, err := rand.Int(rand.Reader, big.NewInt(100000000))
		if err != nil {
			return nil, err
		}
		codes[i] = fmt.Sprintf("%08d", v.Int64())
	}
	return codes, nil
}
