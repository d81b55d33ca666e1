package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steadyhq/steady/internal/app/migrate"
	"github.com/steadyhq/steady/internal/config"
	httpx "github.com/steadyhq/steady/internal/http"
	"github.com/steadyhq/steady/internal/logger"
	"github.com/steadyhq/steady/internal/repository/postgres"
	"github.com/steadyhq/steady/internal/service/ai"
	"github.com/steadyhq/steady/internal/service/auth"
	"github.com/steadyhq/steady/internal/service/contact"
	"github.com/steadyhq/steady/internal/service/domains"
	"github.com/steadyhq/steady/internal/service/payment"
	"github.com/steadyhq/steady/internal/service/quality"
	"github.com/steadyhq/steady/internal/service/shortlink"
	"github.com/steadyhq/steady/internal/settings"
	"github.com/steadyhq/steady/internal/stream"
)

func main() {
	log := logger.New("api", slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	settingsSvc := settings.New(repo, log, cfg.SettingsFile).WithSecrets(cfg.SecretsKey)
	if cfg.SettingsFile != "" {
		if err := settingsSvc.Load(ctx); err != nil {
			log.Warn("settings file load failed", "path", cfg.SettingsFile, "error", err)
		}
	}
	if err := settingsSvc.Hydrate(ctx); err != nil {
		log.Warn("settings hydrate failed", "error", err)
	}
	if cfg.SettingsFile != "" {
		watcher, err := settings.NewWatcher(settingsSvc, log)
		if err != nil {
			log.Warn("settings watcher unavailable", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	hub := stream.NewHub()

	authSvc := auth.New(repo, log, cfg)
	contactSvc := contact.New(repo, log)
	linkSvc := shortlink.New(repo, hub, log, cfg.FallbackRedirectURL, cfg.ClickBuffer)
	go linkSvc.Run(ctx)

	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, log)
	modelFn := func() string { return settingsSvc.Get("ai.model", cfg.AIModel) }
	promptSvc := ai.NewService(aiClient, modelFn, log)
	qualitySvc := quality.New(repo, aiClient, modelFn, log)
	paymentSvc := payment.New(repo, log, cfg)
	domainSvc := domains.New(log, cfg)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, contactSvc, linkSvc, qualitySvc, promptSvc, paymentSvc, domainSvc, settingsSvc, limiter, cfg.StreamHeartbeat(), cfg.StreamBackfillLimit, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
