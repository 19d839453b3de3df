// Package config provides unified configuration for the platform API.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (VOUCHERPAY_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the platform API.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Security      SecurityConfig      `yaml:"security"`
	TOTP          TOTPConfig          `yaml:"totp"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	Analytics     AnalyticsConfig     `yaml:"analytics"`
	Accessibility AccessibilityConfig `yaml:"accessibility"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8000
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// SecurityConfig holds token signing settings.
type SecurityConfig struct {
	TokenSecret     string        `yaml:"token_secret"`      // required, at least 32 bytes
	TokenSecretFile string        `yaml:"token_secret_file"` // _file variant for token_secret
	Algorithm       string        `yaml:"algorithm"`         // HS256, HS384, HS512; default: HS256
	AccessTTL       time.Duration `yaml:"access_ttl"`        // default: 30m
	RefreshTTL      time.Duration `yaml:"refresh_ttl"`       // default: 168h
	ResetTTL        time.Duration `yaml:"reset_ttl"`         // default: 1h
}

// TOTPConfig holds two-factor authentication settings.
type TOTPConfig struct {
	Issuer string `yaml:"issuer"` // provisioning label, default: "VoucherPay Enterprise"
}

// StorageConfig holds user persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Mode selects the chain's default vote when every authenticator
	// abstains: "required" rejects, "open" accepts anonymously.
	// Default: "required".
	Mode    string         `yaml:"mode"`
	APIKeys []APIKeyConfig `yaml:"api_keys"` // service-to-service credentials
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key"`
	KeyFile     string `yaml:"key_file"` // _file variant for key
	Subject     string `yaml:"subject"`
	TenantID    string `yaml:"tenant_id"`
	ServiceTier string `yaml:"service_tier"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled    bool                  `yaml:"enabled"`     // default: true
	Backend    string                `yaml:"backend"`     // "memory" or "redis", default: "memory"
	DefaultRPM int                   `yaml:"default_rpm"` // default: 120
	Tiers      map[string]TierConfig `yaml:"tiers"`
	Redis      RedisConfig           `yaml:"redis"`
}

// TierConfig holds rate limit settings for one service tier.
type TierConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"` // default: "localhost:6379"
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
}

// AnalyticsConfig holds empowerment analytics settings.
type AnalyticsConfig struct {
	Sink        string        `yaml:"sink"`         // "log" or "kafka", default: "log"
	EmitTimeout time.Duration `yaml:"emit_timeout"` // default: 2s
	Kafka       KafkaConfig   `yaml:"kafka"`
}

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"` // default: "empowerment-events"
}

// AccessibilityConfig holds response enrichment settings.
type AccessibilityConfig struct {
	WCAGLevel string `yaml:"wcag_level"` // "A", "AA", or "AAA", default: "AA"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			Algorithm:  "HS256",
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			ResetTTL:   time.Hour,
		},
		TOTP: TOTPConfig{
			Issuer: "VoucherPay Enterprise",
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Mode: "required",
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Backend:    "memory",
			DefaultRPM: 120,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Analytics: AnalyticsConfig{
			Sink:        "log",
			EmitTimeout: 2 * time.Second,
			Kafka: KafkaConfig{
				Topic: "empowerment-events",
			},
		},
		Accessibility: AccessibilityConfig{
			WCAGLevel: "AA",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
