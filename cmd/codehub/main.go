package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/codehub/pkg/audit"
	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/config"
	"github.com/platinummonkey/codehub/pkg/middleware"
	"github.com/platinummonkey/codehub/pkg/observability"
	"github.com/platinummonkey/codehub/pkg/session"
	"github.com/platinummonkey/codehub/pkg/sso"
	"github.com/platinummonkey/codehub/pkg/storage"
	"github.com/platinummonkey/codehub/pkg/storage/arango"
	"github.com/platinummonkey/codehub/pkg/storage/postgres"
	"github.com/platinummonkey/codehub/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file (overrides "+config.ConfigFileEnv+")")
	flag.Parse()

	if *configFile != "" {
		os.Setenv(config.ConfigFileEnv, *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("codehub stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	// User store
	users, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s user store: %w", cfg.Storage.Type, err)
	}
	logger.WithField("type", cfg.Storage.Type).Info("user store ready")

	var (
		db       *sql.DB
		arangoDB *arango.UserStore
	)
	switch store := users.(type) {
	case *postgres.UserStore:
		db = store.DB()
	case *arango.UserStore:
		arangoDB = store
	}

	// Session store
	var (
		sessionStore session.Store
		redisClient  *redis.Client
	)
	switch cfg.Session.Store {
	case "redis":
		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			URL:      cfg.Session.RedisURL,
			PoolSize: cfg.Session.RedisPoolSize,
		})
		if err != nil {
			return fmt.Errorf("failed to connect session store: %w", err)
		}
		sessionStore = rs
		redisClient = rs.Client()
	default:
		sessionStore = session.NewMemoryStore()
	}
	logger.WithField("store", cfg.Session.Store).Info("session store ready")

	sessions, err := session.NewManager(sessionStore, session.Config{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Server.SecureCookies,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	// Metrics
	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}

	// Audit trail: always to the log, and to audit_logs when backed by PostgreSQL
	auditLoggers := []audit.Logger{audit.NewLogrusLogger(logger)}
	if db != nil {
		dbAudit, err := audit.NewDBLogger(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to create audit logger: %w", err)
		}
		auditLoggers = append(auditLoggers, dbAudit)
	}
	auditLogger := audit.NewMultiLogger(auditLoggers...)

	// External identity providers
	providers := sso.NewProviders(ctx, cfg.SSO, logger)
	broker := sso.NewBroker(sso.BrokerConfig{
		Users:         users,
		Sessions:      sessions,
		Logger:        logger,
		Metrics:       metrics,
		Audit:         auditLogger,
		SecureCookies: cfg.Server.SecureCookies,
	}, providers...)
	logger.WithField("providers", broker.Enabled()).Info("external sign-in configured")

	health := observability.NewHealthChecker(db, redisClient)
	if arangoDB != nil {
		health.AddCheck("database", arangoDB.Ping)
	}

	// Form post limits are shared across instances when sessions are in Redis
	var limiter middleware.Limiter
	if cfg.Server.RateLimitRequests > 0 {
		limitCfg := &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.Server.RateLimitRequests,
			WindowDuration:    cfg.Server.RateLimitWindow,
			BurstSize:         cfg.Server.RateLimitBurst,
		}
		if redisClient != nil {
			limiter = middleware.NewDistributedRateLimiter(redisClient, limitCfg, "codehub:ratelimit")
		} else {
			local := middleware.NewRateLimiter(limitCfg)
			local.StartCleanup(ctx)
			limiter = local
		}
	}

	server, err := web.NewServer(web.Config{
		Auth:        auth.NewService(users, logger),
		Users:       users,
		Sessions:    sessions,
		Broker:      broker,
		Logger:      logger,
		Audit:       auditLogger,
		Metrics:     metrics,
		Registry:    registry,
		Health:      health,
		RateLimiter: limiter,
		ServiceName: cfg.Observability.OTelServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc("audit log", func(ctx context.Context) error {
		return auditLogger.Close()
	})
	shutdown.RegisterShutdownFunc("user store", func(ctx context.Context) error {
		return users.Close()
	})
	if rs, ok := sessionStore.(*session.RedisStore); ok {
		shutdown.RegisterShutdownFunc("session store", func(ctx context.Context) error {
			return rs.Close()
		})
	}
	shutdown.RegisterShutdownFunc("telemetry", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("starting CodeHub server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	done := make(chan error, 1)
	go func() {
		done <- shutdown.WaitForShutdown()
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return <-done
	case err := <-done:
		return err
	}
}
