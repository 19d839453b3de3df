package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// security.token_secret is required and must be long enough for HMAC signing.
	if c.Security.TokenSecret == "" {
		errs = append(errs, fmt.Errorf("security.token_secret or security.token_secret_file is required"))
	} else if len(c.Security.TokenSecret) < 32 {
		errs = append(errs, fmt.Errorf("security.token_secret must be at least 32 bytes, got %d", len(c.Security.TokenSecret)))
	}

	// security.algorithm must be an HMAC variant.
	switch c.Security.Algorithm {
	case "HS256", "HS384", "HS512":
		// valid
	default:
		errs = append(errs, fmt.Errorf("security.algorithm must be \"HS256\", \"HS384\", or \"HS512\", got %q", c.Security.Algorithm))
	}

	// Refresh tokens must outlive access tokens.
	if c.Security.AccessTTL <= 0 {
		errs = append(errs, fmt.Errorf("security.access_ttl must be > 0, got %s", c.Security.AccessTTL))
	}
	if c.Security.RefreshTTL <= c.Security.AccessTTL {
		errs = append(errs, fmt.Errorf("security.refresh_ttl must be greater than security.access_ttl"))
	}

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// auth.mode must be a known value.
	switch c.Auth.Mode {
	case "required", "open":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be \"required\" or \"open\", got %q", c.Auth.Mode))
	}

	// Every API key entry needs a credential and a subject.
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" && k.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key or key_file is required", i))
		}
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
	}

	// ratelimit.backend must be a known value.
	switch c.RateLimit.Backend {
	case "memory", "redis":
		// valid
	default:
		errs = append(errs, fmt.Errorf("ratelimit.backend must be \"memory\" or \"redis\", got %q", c.RateLimit.Backend))
	}

	// analytics.sink must be a known value.
	switch c.Analytics.Sink {
	case "log", "kafka":
		// valid
	default:
		errs = append(errs, fmt.Errorf("analytics.sink must be \"log\" or \"kafka\", got %q", c.Analytics.Sink))
	}

	// If analytics.sink is "kafka", brokers must be set.
	if c.Analytics.Sink == "kafka" && len(c.Analytics.Kafka.Brokers) == 0 {
		errs = append(errs, fmt.Errorf("analytics.kafka.brokers is required when analytics.sink is \"kafka\""))
	}

	// accessibility.wcag_level must be a known conformance level.
	switch c.Accessibility.WCAGLevel {
	case "A", "AA", "AAA":
		// valid
	default:
		errs = append(errs, fmt.Errorf("accessibility.wcag_level must be \"A\", \"AA\", or \"AAA\", got %q", c.Accessibility.WCAGLevel))
	}

	return errors.Join(errs...)
}
