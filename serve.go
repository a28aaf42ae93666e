package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"credit-advisor/config"
	httpLayer "credit-advisor/http"
	"credit-advisor/inference"
	"credit-advisor/llm"
	"credit-advisor/logger"
	"credit-advisor/metrics"
	"credit-advisor/repository"
	"credit-advisor/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ctx := cmd.Context()

	classifier := inference.NewProcessClassifier(inferenceOptions(cfg.Inference), log, m)

	generator, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		return err
	}
	if closer, ok := generator.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	cache, health, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	var limiter *httpLayer.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = httpLayer.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow)
		defer limiter.Stop()
	}

	router := httpLayer.Setup(httpLayer.RouterConfig{
		Prediction:     service.NewPredictionService(classifier, log),
		Recommendation: service.NewRecommendationService(cache, generator, log, m),
		Health:         health,
		RateLimiter:    limiter,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		Gatherer:       registry,
		Metrics:        m,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("API listening",
			zap.String("addr", server.Addr),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("cache_backend", cfg.Cache.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("error starting server", zap.Error(err))
		return err
	case <-quit:
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
		return err
	}

	log.Info("server exited")
	return nil
}

func inferenceOptions(cfg config.InferenceConfig) inference.Options {
	return inference.Options{
		Command:        cfg.Command,
		Args:           cfg.Args,
		Dir:            cfg.Dir,
		Timeout:        cfg.Timeout,
		MaxConcurrency: cfg.MaxConcurrency,
	}
}

// newCache builds the configured recommendation cache and its health reporter.
func newCache(ctx context.Context, cfg config.CacheConfig) (repository.CacheRepository, *httpLayer.HealthHandler, func(), error) {
	if cfg.Backend == "redis" {
		rc, err := repository.NewRedisCache(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.KeyPrefix, cfg.TTL)
		if err != nil {
			return nil, nil, nil, err
		}
		return rc, httpLayer.NewHealthHandler(cfg.Backend, rc), func() { _ = rc.Close() }, nil
	}

	mc := repository.NewMemoryCache(cfg.TTL, cfg.MaxEntries)
	return mc, httpLayer.NewHealthHandler(cfg.Backend, nil), func() {}, nil
}
