package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/vietcare/booking-assistant/internal/api/router"
	"github.com/vietcare/booking-assistant/internal/catalog"
	appconfig "github.com/vietcare/booking-assistant/internal/config"
	"github.com/vietcare/booking-assistant/internal/dialog"
	"github.com/vietcare/booking-assistant/internal/observability/metrics"
	"github.com/vietcare/booking-assistant/internal/session"
	"github.com/vietcare/booking-assistant/internal/webchat"
	"github.com/vietcare/booking-assistant/pkg/logging"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.CatalogBaseURL == "" {
		logger.Error("CATALOG_BASE_URL is required")
		os.Exit(1)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(registry)

	// Hospital catalog gateway
	gateway := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogAPIToken, logger).
		WithTimeout(cfg.CatalogTimeout).
		WithRetries(cfg.CatalogRetryAttempts, cfg.CatalogRetryBaseWait)

	engine := dialog.NewEngine(gateway, logger).WithMetrics(chatMetrics)

	// Redis-backed session state. When no Redis is configured the chat
	// still answers, but every turn starts from an empty context.
	var contexts *session.ContextStore
	var transcript *session.TranscriptStore
	if redisClient := buildRedisClient(cfg, logger); redisClient != nil {
		contexts = session.NewContextStore(redisClient)
		transcript = session.NewTranscriptStore(redisClient, int64(cfg.TranscriptMax))
	}

	chatHandler := webchat.NewHandler(engine, contexts, transcript, logger,
		webchat.WithMetrics(chatMetrics))

	r := router.New(&router.Config{
		Logger:             logger,
		Webchat:            chatHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRatePerSec:     cfg.ChatRatePerSec,
		ChatRateBurst:      cfg.ChatRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildRedisClient(cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, session state is disabled")
		return nil
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, session state is disabled", "error", err)
		return nil
	}
	return client
}
