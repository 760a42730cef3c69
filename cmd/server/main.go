package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LACS-Official/activation-codes-service/internal/config"
	pg "github.com/LACS-Official/activation-codes-service/internal/infra/db/postgres"
	"github.com/LACS-Official/activation-codes-service/internal/infra/logging"
	"github.com/LACS-Official/activation-codes-service/internal/infra/metrics"
	red "github.com/LACS-Official/activation-codes-service/internal/infra/redis"
	"github.com/LACS-Official/activation-codes-service/internal/infra/sched"
	"github.com/LACS-Official/activation-codes-service/internal/infra/web"
	"github.com/LACS-Official/activation-codes-service/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis (optional; without it the verify endpoint is unthrottled) ----
	var limiter web.VerifyLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set, verification rate limiting disabled")
	}

	// ---- Repository and use case ----
	codeRepo := pg.NewActivationCodeRepo(pool)
	txm := pg.NewTxManager(pool)
	codeUC := usecase.NewCodeUseCase(codeRepo, txm, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, cfg.Auth.SessionTTL)
	srv := web.NewServer(codeUC, auth, cfg.Auth.APIKey, limiter, cfg.RateLimit.VerifyLimit, cfg.RateLimit.VerifyWindow, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Background cleanup ----
	worker := sched.NewCleanupWorker(cfg.Cleanup.Interval, cfg.Cleanup.UnusedMinutes, cfg.Cleanup.ExpiredDays, codeUC, logger)
	go func() { _ = worker.Run(ctx) }()

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
