// Package postgres provides a PostgreSQL implementation of storage.UserStore.
// It uses pgx/v5 for connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voucherpay/enterprise/pkg/storage"
)

// Store is a PostgreSQL-backed UserStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.UserStore at compile time.
var _ storage.UserStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const userColumns = `
	id, tenant_id, email, username, full_name, role,
	password_hash, totp_secret, two_factor_enabled,
	screen_reader_user, high_contrast_mode, keyboard_navigation,
	reduced_motion, font_size,
	active, created_at, updated_at
`

// CreateUser persists a new account.
func (s *Store) CreateUser(ctx context.Context, user *storage.UserRecord) error {
	if user.TenantID == "" {
		user.TenantID = storage.GetTenant(ctx)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		user.ID, user.TenantID, user.Email, nullString(user.Username), nullString(user.FullName), user.Role,
		user.PasswordHash, nullString(user.TOTPSecret), user.TwoFactorEnabled,
		user.Accessibility.ScreenReaderUser, user.Accessibility.HighContrastMode, user.Accessibility.KeyboardNavigation,
		user.Accessibility.ReducedMotion, user.Accessibility.FontSize,
		user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// FindUserByID retrieves an account by ID, scoped by tenant when a
// tenant is present in the context.
func (s *Store) FindUserByID(ctx context.Context, id string) (*storage.UserRecord, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	args := []any{id}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	return s.scanUser(ctx, query, args...)
}

// FindUserByIdentifier retrieves an account by email or username,
// case-insensitively.
func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*storage.UserRecord, error) {
	query := "SELECT " + userColumns + " FROM users WHERE (lower(email) = lower($1) OR lower(username) = lower($1))"
	args := []any{identifier}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	return s.scanUser(ctx, query, args...)
}

func (s *Store) scanUser(ctx context.Context, query string, args ...any) (*storage.UserRecord, error) {
	var u storage.UserRecord
	var username, fullName, totpSecret *string

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.TenantID, &u.Email, &username, &fullName, &u.Role,
		&u.PasswordHash, &totpSecret, &u.TwoFactorEnabled,
		&u.Accessibility.ScreenReaderUser, &u.Accessibility.HighContrastMode, &u.Accessibility.KeyboardNavigation,
		&u.Accessibility.ReducedMotion, &u.Accessibility.FontSize,
		&u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if username != nil {
		u.Username = *username
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if totpSecret != nil {
		u.TOTPSecret = *totpSecret
	}
	return &u, nil
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.updateColumn(ctx, id, "password_hash = $2", passwordHash)
}

// SetTOTPSecret stores a pending two-factor secret.
func (s *Store) SetTOTPSecret(ctx context.Context, id, secret string) error {
	return s.updateColumn(ctx, id, "totp_secret = $2", secret)
}

// EnableTwoFactor marks two-factor authentication active.
func (s *Store) EnableTwoFactor(ctx context.Context, id string) error {
	query := "UPDATE users SET two_factor_enabled = TRUE, updated_at = now() WHERE id = $1"
	args := []any{id}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateAccessibilityProfile replaces the stored accessibility preferences.
func (s *Store) UpdateAccessibilityProfile(ctx context.Context, id string, profile storage.AccessibilityProfile) error {
	query := `UPDATE users SET
		screen_reader_user = $2, high_contrast_mode = $3, keyboard_navigation = $4,
		reduced_motion = $5, font_size = $6, updated_at = now()
		WHERE id = $1`
	args := []any{id, profile.ScreenReaderUser, profile.HighContrastMode, profile.KeyboardNavigation,
		profile.ReducedMotion, profile.FontSize}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $7"
		args = append(args, tenantID)
	}
	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) updateColumn(ctx context.Context, id, assignment string, value any) error {
	query := "UPDATE users SET " + assignment + ", updated_at = now() WHERE id = $1"
	args := []any{id, value}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $3"
		args = append(args, tenantID)
	}
	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
