// Command server runs the VoucherPay Enterprise platform API.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (flag, VOUCHERPAY_CONFIG, ./config.yaml, /etc/voucherpay/config.yaml),
// then VOUCHERPAY_* environment overrides. A .env file in the working
// directory is loaded into the environment first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/voucherpay/enterprise/pkg/accessibility"
	"github.com/voucherpay/enterprise/pkg/analytics"
	"github.com/voucherpay/enterprise/pkg/api"
	"github.com/voucherpay/enterprise/pkg/auth"
	"github.com/voucherpay/enterprise/pkg/auth/apikey"
	"github.com/voucherpay/enterprise/pkg/auth/bearer"
	"github.com/voucherpay/enterprise/pkg/auth/noop"
	"github.com/voucherpay/enterprise/pkg/config"
	"github.com/voucherpay/enterprise/pkg/observability"
	"github.com/voucherpay/enterprise/pkg/password"
	"github.com/voucherpay/enterprise/pkg/storage"
	"github.com/voucherpay/enterprise/pkg/storage/memory"
	"github.com/voucherpay/enterprise/pkg/storage/postgres"
	"github.com/voucherpay/enterprise/pkg/token"
	"github.com/voucherpay/enterprise/pkg/totp"
	"github.com/voucherpay/enterprise/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Populate the environment from .env before config loading reads it.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Storage.
	store, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Token core.
	codec, err := token.NewCodec(token.CodecConfig{
		Secret:    []byte(cfg.Security.TokenSecret),
		Algorithm: cfg.Security.Algorithm,
	})
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}
	issuer, err := token.NewIssuer(codec, token.IssuerConfig{
		AccessTTL:  cfg.Security.AccessTTL,
		RefreshTTL: cfg.Security.RefreshTTL,
		ResetTTL:   cfg.Security.ResetTTL,
	})
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}
	verifier := token.NewVerifier(codec, logger)

	totpSvc, err := totp.NewService(totp.Config{Issuer: cfg.TOTP.Issuer})
	if err != nil {
		return fmt.Errorf("creating totp service: %w", err)
	}

	hasher := password.NewHasher(password.DefaultParams())

	// Analytics.
	sink := buildSink(cfg, logger)
	defer sink.Close()
	emitter := analytics.NewEmitter(sink, logger, cfg.Analytics.EmitTimeout)

	// Authentication chain and rate limiting.
	chain := buildAuthChain(cfg, verifier)
	limiter := buildLimiter(cfg, logger)

	enricher := accessibility.NewEnricher(cfg.Accessibility.WCAGLevel, logger)
	pipeline := transport.NewPipeline(enricher, emitter, logger,
		transport.WithPrincipalFunc(auth.Principal),
		transport.WithContextSeed(auth.HoldPrincipal))

	handlers := api.NewHandlers(store, hasher, issuer, verifier, totpSvc, logger)

	mux := http.NewServeMux()
	mux.Handle("/", handlers.Routes())
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	handler := transport.Chain(
		transport.SecurityHeaders(),
		transport.RequestID(),
		transport.ProcessTime(),
		transport.Logging(logger),
		transport.Recovery(logger),
		observability.MetricsMiddleware,
		// The pipeline wraps auth so rejected and rate-limited
		// responses are enriched and observed like any other.
		pipeline.Middleware(),
		auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints),
	)(mux)

	srv := transport.NewServer(handler,
		transport.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transport.WithReadTimeout(cfg.Server.ReadTimeout),
		transport.WithWriteTimeout(cfg.Server.WriteTimeout),
		transport.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transport.WithServerLogger(logger),
	)

	logger.Info("server starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"auth_mode", cfg.Auth.Mode,
		"analytics_sink", cfg.Analytics.Sink,
		"wcag_level", cfg.Accessibility.WCAGLevel,
	)
	return srv.ListenAndServe()
}

func buildStore(cfg *config.Config, logger *slog.Logger) (storage.UserStore, error) {
	switch cfg.Storage.Type {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		logger.Info("storage ready", "type", "postgres")
		return store, nil
	default:
		logger.Info("storage ready", "type", "memory")
		return memory.New(), nil
	}
}

func buildSink(cfg *config.Config, logger *slog.Logger) analytics.Sink {
	if cfg.Analytics.Sink == "kafka" {
		logger.Info("analytics sink ready", "type", "kafka",
			"brokers", cfg.Analytics.Kafka.Brokers, "topic", cfg.Analytics.Kafka.Topic)
		return analytics.NewKafkaSink(cfg.Analytics.Kafka.Brokers, cfg.Analytics.Kafka.Topic)
	}
	logger.Info("analytics sink ready", "type", "log")
	return analytics.NewLogSink(logger)
}

func buildAuthChain(cfg *config.Config, verifier *token.Verifier) *auth.AuthChain {
	var authenticators []auth.Authenticator

	if len(cfg.Auth.APIKeys) > 0 {
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			id := auth.Identity{
				Subject:     k.Subject,
				ServiceTier: k.ServiceTier,
			}
			if k.TenantID != "" {
				id.Metadata = map[string]string{"tenant_id": k.TenantID}
			}
			entries = append(entries, apikey.RawKeyEntry{Key: k.Key, Identity: id})
		}
		authenticators = append(authenticators, apikey.New(entries))
	}

	authenticators = append(authenticators, bearer.New(verifier))

	// Open mode appends an accept-all voter so unauthenticated requests
	// still carry an anonymous identity through the pipeline.
	if cfg.Auth.Mode == "open" {
		authenticators = append(authenticators, &noop.Authenticator{})
	}
	return &auth.AuthChain{
		Authenticators:  authenticators,
		DefaultDecision: auth.No,
	}
}

func buildLimiter(cfg *config.Config, logger *slog.Logger) auth.RateLimiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
	for name, t := range cfg.RateLimit.Tiers {
		tiers[name] = auth.TierConfig{RequestsPerMinute: t.RequestsPerMinute}
	}

	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		logger.Info("rate limiter ready", "backend", "redis", "addr", cfg.RateLimit.Redis.Addr)
		return auth.NewRedisLimiter(client, tiers, cfg.RateLimit.DefaultRPM, logger)
	}

	logger.Info("rate limiter ready", "backend", "memory")
	return auth.NewInProcessLimiter(tiers, cfg.RateLimit.DefaultRPM)
}
