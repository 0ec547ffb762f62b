package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Strob0t/PlanForge/internal/adapter/gemini"
	pfhttp "github.com/Strob0t/PlanForge/internal/adapter/http"
	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
	"github.com/Strob0t/PlanForge/internal/adapter/mcp"
	"github.com/Strob0t/PlanForge/internal/adapter/memory"
	pfnats "github.com/Strob0t/PlanForge/internal/adapter/nats"
	"github.com/Strob0t/PlanForge/internal/adapter/natskv"
	pfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/adapter/prom"
	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/adapter/ristretto"
	"github.com/Strob0t/PlanForge/internal/adapter/tiered"
	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	ttlcache "github.com/Strob0t/PlanForge/internal/cache"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain/template"
	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/middleware"
	"github.com/Strob0t/PlanForge/internal/port/cache"
	"github.com/Strob0t/PlanForge/internal/port/generator"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
	"github.com/Strob0t/PlanForge/internal/ratelimit"
	"github.com/Strob0t/PlanForge/internal/resilience"
	"github.com/Strob0t/PlanForge/internal/secrets"
	"github.com/Strob0t/PlanForge/internal/service"
)

// secretKeys are loaded into the vault, redacted from logs and reloaded
// on SIGHUP.
var secretKeys = []string{
	"GEMINI_API_KEY",
	"LITELLM_MASTER_KEY",
	"SLACK_WEBHOOK_URL",
	"DISCORD_WEBHOOK_URL",
	"PLANFORGE_MCP_API_KEY",
	"REDIS_PASSWORD",
}

// bootstrap loads config and secrets and installs the default logger.
func bootstrap() (*config.Config, *secrets.Vault, logger.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	vault, err := secrets.NewVault(secrets.DotenvLoader(config.DefaultEnvFile, secretKeys...))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("secrets: %w", err)
	}
	log, closer := logger.New(cfg.Logging, logger.WithRedactor(vault.RedactString))
	slog.SetDefault(log)
	return cfg, vault, closer, nil
}

// newGenerator builds the configured generator with a circuit breaker.
func newGenerator(cfg config.Generator, brk config.Breaker, vault *secrets.Vault) generator.Generator {
	breaker := resilience.NewBreaker(brk.MaxFailures, brk.Timeout,
		resilience.WithFailureFilter(generator.UpstreamFault))

	if cfg.Provider == "litellm" {
		c := litellm.NewClient(litellm.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		c.SetBreaker(breaker)
		return c
	}

	c := gemini.NewClient(gemini.Config{
		KeySource: func() string {
			if k := vault.Get("GEMINI_API_KEY"); k != "" {
				return k
			}
			return cfg.APIKey
		},
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	c.SetBreaker(breaker)
	return c
}

func sampling(cfg config.Generator) generator.Sampling {
	return generator.Sampling{
		Temperature:     cfg.Temperature,
		TopK:            cfg.TopK,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

func runServe(_ []string) error {
	cfg, vault, closeLog, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeLog.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"generator", cfg.Generator.Provider,
		"rate_backend", cfg.Rate.Backend,
		"auth", cfg.Auth.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTel, err := pfotel.Setup(ctx, pfotel.Config{
		Enabled:     cfg.OTEL.Enabled,
		Endpoint:    cfg.OTEL.Endpoint,
		ServiceName: cfg.Logging.Service,
		Insecure:    cfg.OTEL.Insecure,
		SampleRate:  cfg.OTEL.SampleRate,
		Timeout:     cfg.OTEL.Timeout,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	metrics, err := pfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("postgres ready")
	store := postgres.NewStore(pool)

	healthChecks := map[string]pfhttp.HealthCheck{"postgres": store.Ping}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB<<20, cfg.Cache.DefaultTTL)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()

	var (
		queue     messagequeue.Queue
		planCache cache.Cache = l1
		idemStore cache.Cache = memory.New(ttlcache.Options{DefaultTTL: cfg.Idempotency.TTL})
	)
	if cfg.NATS.URL != "" {
		q, err := pfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.StreamAge)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Drain() }()
		queue = q
		healthChecks["nats"] = func(context.Context) error {
			if !q.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}

		l2, err := natskv.Open(ctx, q.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("l2 cache: %w", err)
		}
		planCache = tiered.New(l1, l2, cfg.Cache.DefaultTTL)
		idemStore = l2
		slog.Info("nats connected", "url", cfg.NATS.URL, "l2_bucket", cfg.Cache.L2Bucket)
	}

	var limiter ratelimit.Limiter
	switch cfg.Rate.Backend {
	case "redis":
		password := cfg.Redis.Password
		if p := vault.Get("REDIS_PASSWORD"); p != "" {
			password = p
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		limiter = ratelimit.NewRedis(rdb, cfg.Rate.Interval)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	default:
		limiter = ratelimit.NewWindow(ratelimit.Options{Interval: cfg.Rate.Interval})
	}

	// --- Services ---

	catalog := template.Default()
	var origins []string
	if cfg.Server.CORSOrigin != "" {
		origins = []string{cfg.Server.CORSOrigin}
	}
	hub := ws.NewHub(origins)
	events := service.NewEvents(queue, hub)
	gen := newGenerator(cfg.Generator, cfg.Breaker, vault)

	generationSvc := service.NewGenerationService(gen, catalog, sampling(cfg.Generator),
		service.WithGenerationMetrics(metrics),
		service.WithGenerationEvents(events),
	)

	planSvc := service.NewPlanService(store)
	planSvc.SetCache(planCache, cfg.Cache.PlanTTL)
	planSvc.SetEvents(events)
	planSvc.SetMetrics(metrics)

	integrationSvc := service.NewIntegrationService(planSvc, cfg.Integrations.Defaults())
	integrationSvc.SetEvents(events)

	fetcher := service.NewFetcher(&http.Client{Timeout: cfg.Generator.Timeout},
		memory.New(ttlcache.Options{DefaultTTL: cfg.Cache.DefaultTTL}))
	modelSvc := service.NewModelService(gen, fetcher, cfg.Generator.ModelsTTL)

	keys := make([]middleware.OwnerKey, 0, len(cfg.Auth.Keys))
	for _, k := range cfg.Auth.Keys {
		keys = append(keys, middleware.OwnerKey{OwnerID: k.Owner, Hash: k.Hash})
	}
	authn := middleware.NewAuthenticator(keys, cfg.Auth.VerifyTTL)

	// --- MCP ---

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "planforge",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
			OwnerID: cfg.MCP.OwnerID,
		}, mcp.ServerDeps{
			Generator: generationSvc,
			Plans:     planSvc,
			Templates: catalog,
			Limiter:   limiter,
			RateLimit: cfg.Rate.Limit,
		})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = mcpSrv.Stop(stopCtx)
		}()
	}

	// --- HTTP ---

	handlers := &pfhttp.Handlers{
		Generation:   generationSvc,
		Plans:        planSvc,
		Integrations: integrationSvc,
		Models:       modelSvc,
		Templates:    catalog,
		HealthChecks: healthChecks,
		Version:      version,
	}

	r := chi.NewRouter()

	var promMetrics *prom.Metrics
	if cfg.Metrics.Enabled {
		promMetrics = prom.New("planforge")
	}

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	if promMetrics != nil {
		r.Use(promMetrics.Middleware)
	}
	if cfg.OTEL.Enabled {
		r.Use(pfotel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(pfhttp.SecurityHeaders)
	r.Use(pfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.Owner(authn, cfg.Auth.Enabled))
	r.Use(pfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Generator.Timeout + 15*time.Second))

	r.Get("/health", handlers.Health)
	r.Get("/ws", hub.HandleWS)
	if promMetrics != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promMetrics.Handler())
	}

	pfhttp.MountRoutes(r, handlers, pfhttp.RouteOptions{
		GenerateLimit: middleware.RateLimit(limiter, cfg.Rate.Limit, middleware.OwnerOrIP,
			middleware.WithRateLimitMetrics(metrics)),
		Idempotency: middleware.Idempotency(idemStore, cfg.Idempotency.TTL),
	})

	go reloadSecretsOnHUP(ctx, vault)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reloadSecretsOnHUP re-reads the vault whenever the process gets SIGHUP.
func reloadSecretsOnHUP(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded", "keys", vault.Keys())
		}
	}
}
