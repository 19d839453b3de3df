package storage

import (
	"context"
	"time"
)

// UserRecord is the persisted form of a platform account. PasswordHash
// and TOTPSecret are credential material and must never appear in API
// responses.
type UserRecord struct {
	ID       string
	Email    string
	Username string
	FullName string

	// Role is the platform role (user, employer, administrator).
	Role string

	// TenantID scopes the account in multi-tenant deployments.
	// Empty in single-tenant mode.
	TenantID string

	PasswordHash string

	// TOTPSecret is set during two-factor setup and only becomes
	// authoritative once TwoFactorEnabled is true.
	TOTPSecret       string
	TwoFactorEnabled bool

	// Accessibility holds the account's presentation preferences,
	// served by the profile endpoint and updated by the assessment.
	Accessibility AccessibilityProfile

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccessibilityProfile is the per-account slice of presentation
// preferences the platform personalizes responses with.
type AccessibilityProfile struct {
	ScreenReaderUser   bool
	HighContrastMode   bool
	KeyboardNavigation bool
	ReducedMotion      bool
	FontSize           int
}

// DefaultAccessibilityProfile returns the preferences assigned to new
// accounts: keyboard navigation on, 16px base font, everything else off.
func DefaultAccessibilityProfile() AccessibilityProfile {
	return AccessibilityProfile{
		KeyboardNavigation: true,
		FontSize:           16,
	}
}

// UserStore is the persistence contract for platform accounts. All
// methods respect the tenant in the context: a tenant-scoped call never
// sees another tenant's users.
type UserStore interface {
	// CreateUser persists a new account. Returns ErrConflict if the
	// email or username is already taken within the tenant.
	CreateUser(ctx context.Context, user *UserRecord) error

	// FindUserByID retrieves an account by its ID.
	FindUserByID(ctx context.Context, id string) (*UserRecord, error)

	// FindUserByIdentifier retrieves an account by email or username.
	FindUserByIdentifier(ctx context.Context, identifier string) (*UserRecord, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetTOTPSecret stores a pending two-factor secret without
	// enabling two-factor authentication.
	SetTOTPSecret(ctx context.Context, id, secret string) error

	// EnableTwoFactor marks two-factor authentication active for the
	// account. The pending secret becomes authoritative.
	EnableTwoFactor(ctx context.Context, id string) error

	// UpdateAccessibilityProfile replaces the stored accessibility
	// preferences.
	UpdateAccessibilityProfile(ctx context.Context, id string, profile AccessibilityProfile) error

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases held resources.
	Close() error
}
