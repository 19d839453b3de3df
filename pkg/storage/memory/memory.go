// Package memory provides an in-memory implementation of storage.UserStore
// for testing and lightweight deployments. Accounts are stored in memory
// and lost when the process restarts.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voucherpay/enterprise/pkg/storage"
)

// Store is an in-memory UserStore.
type Store struct {
	mu    sync.RWMutex
	users map[string]*storage.UserRecord // keyed by ID
}

// Ensure Store implements storage.UserStore at compile time.
var _ storage.UserStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{users: make(map[string]*storage.UserRecord)}
}

// CreateUser persists a new account. An empty ID is assigned a random
// UUID. Email and username uniqueness is enforced per tenant.
func (s *Store) CreateUser(ctx context.Context, user *storage.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.TenantID == "" {
		user.TenantID = storage.GetTenant(ctx)
	}

	for _, existing := range s.users {
		if existing.TenantID != user.TenantID {
			continue
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return storage.ErrConflict
		}
		if user.Username != "" && strings.EqualFold(existing.Username, user.Username) {
			return storage.ErrConflict
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	s.users[user.ID] = &clone
	return nil
}

// FindUserByID retrieves an account by ID. Scoped by tenant when a
// tenant is present in the context.
func (s *Store) FindUserByID(ctx context.Context, id string) (*storage.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || !visibleTo(ctx, u) {
		return nil, storage.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// FindUserByIdentifier retrieves an account by email or username,
// case-insensitively.
func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*storage.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if !visibleTo(ctx, u) {
			continue
		}
		if strings.EqualFold(u.Email, identifier) || (u.Username != "" && strings.EqualFold(u.Username, identifier)) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.update(ctx, id, func(u *storage.UserRecord) {
		u.PasswordHash = passwordHash
	})
}

// SetTOTPSecret stores a pending two-factor secret.
func (s *Store) SetTOTPSecret(ctx context.Context, id, secret string) error {
	return s.update(ctx, id, func(u *storage.UserRecord) {
		u.TOTPSecret = secret
	})
}

// EnableTwoFactor marks two-factor authentication active.
func (s *Store) EnableTwoFactor(ctx context.Context, id string) error {
	return s.update(ctx, id, func(u *storage.UserRecord) {
		u.TwoFactorEnabled = true
	})
}

// UpdateAccessibilityProfile replaces the stored accessibility preferences.
func (s *Store) UpdateAccessibilityProfile(ctx context.Context, id string, profile storage.AccessibilityProfile) error {
	return s.update(ctx, id, func(u *storage.UserRecord) {
		u.Accessibility = profile
	})
}

func (s *Store) update(ctx context.Context, id string, fn func(*storage.UserRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !visibleTo(ctx, u) {
		return storage.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// visibleTo applies tenant scoping. An empty context tenant sees all
// users (single-tenant mode).
func visibleTo(ctx context.Context, u *storage.UserRecord) bool {
	tenantID := storage.GetTenant(ctx)
	return tenantID == "" || u.TenantID == tenantID
}
