package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"apoyos/internal/amqp"
	"apoyos/internal/backend"
	"apoyos/internal/cache"
	"apoyos/internal/cli"
	"apoyos/internal/config"
	"apoyos/internal/dashboard"
	apphttp "apoyos/internal/http"
	applog "apoyos/internal/log"
	"apoyos/internal/middleware/ratelimit"
	"apoyos/internal/middleware/security"
	"apoyos/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Error("Failed to load .env file", applog.FieldError, err)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Invalid configuration",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run owns every resource opened after configuration so that deferred
// cleanups execute on all exit paths.
func run(cfg *config.Config, logger *applog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	defer res.Cleanup()

	now := func() time.Time { return time.Now().In(loc) }
	svc := dashboard.NewService(res.Store,
		dashboard.WithClock(now),
		dashboard.WithTopLimit(cfg.TopLimit),
		dashboard.WithQueryTimeout(cfg.QueryTimeout),
		dashboard.WithLogger(logger.WithComponent(applog.ComponentDashboard)),
	)

	caches := cache.NewManager(logger)
	defer caches.Stop()
	var responses *cache.LRUCache[[]byte]
	if cfg.CacheEnabled() {
		responses = cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL)
		caches.Register(responses)
		caches.StartCleanup(cfg.CacheTTL)
	}

	ips, err := security.NewIPResolver(cfg.TrustedProxies...)
	if err != nil {
		return fmt.Errorf("invalid trusted proxy list: %w", err)
	}

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:       ":" + cfg.Port,
		Now:        now,
		Facade:     dashboard.NewFacade(svc),
		Logger:     logger,
		Responses:  responses,
		Limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		IPResolver: ips,
		Headers:    security.DefaultHeadersConfig(),
	})
	defer srv.Shutdown(context.Background())

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer consumer.Close()
	} else {
		logger.Info("AMQP disabled, dashboard cache expires by TTL only")
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
	})

	if consumer != nil {
		invalidator := worker.NewInvalidationWorker(caches, logger)
		go func() {
			if err := invalidator.Run(ctx, consumer); err != nil {
				logger.Error("Invalidation worker stopped", applog.FieldError, err)
			}
		}()
	}

	logger.Info("Starting apoyos server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", loc.String(),
		"cache", cfg.CacheEnabled(),
		"amqp", consumer != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}

	<-done
	return nil
}
