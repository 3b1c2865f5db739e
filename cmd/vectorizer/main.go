package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lhnows1/textvec/internal/cache"
	"github.com/lhnows1/textvec/internal/model"
	"github.com/lhnows1/textvec/internal/registry"
	"github.com/lhnows1/textvec/internal/server"
	"github.com/lhnows1/textvec/pkg/config"
	"github.com/lhnows1/textvec/pkg/health"
	"github.com/lhnows1/textvec/pkg/logger"
	"github.com/lhnows1/textvec/pkg/metrics"
	"github.com/lhnows1/textvec/pkg/middleware"
	"github.com/lhnows1/textvec/pkg/postgres"
	pkgredis "github.com/lhnows1/textvec/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting vectorize service", "port", cfg.Server.Port, "model_dir", cfg.Vectorizer.ModelDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	store := model.NewStore()
	models, err := model.LoadDir(cfg.Vectorizer.ModelDir)
	if err != nil {
		slog.Error("failed to load models", "dir", cfg.Vectorizer.ModelDir, "error", err)
		os.Exit(1)
	}
	for _, md := range models {
		entry, err := store.Put(md)
		if err != nil {
			slog.Error("failed to compile model", "model", md.Name, "error", err)
			os.Exit(1)
		}
		slog.Info("model loaded",
			"model", md.Name,
			"kind", md.Kind(),
			"patterns", entry.Extractor.PoolSize(),
			"output_size", entry.Extractor.OutputSize(),
		)
		if m != nil {
			m.PatternPoolSize.WithLabelValues(md.Name, md.Kind()).Set(float64(entry.Extractor.PoolSize()))
		}
	}
	if m != nil {
		m.ModelsLoaded.Set(float64(store.Len()))
	}

	var reg *registry.Registry
	var pgClient *postgres.Client
	if cfg.Vectorizer.UseRegistry {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		reg, err = registry.New(ctx, pgClient)
		if err != nil {
			slog.Error("failed to initialize model registry", "error", err)
			os.Exit(1)
		}
		slog.Info("model registry enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	var vectorCache *cache.VectorCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, vector caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		vectorCache = cache.New(redisClient, cfg.Redis, m)
		slog.Info("vector cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	checker := health.NewChecker()
	checker.Register("model_store", func(ctx context.Context) health.ComponentHealth {
		if store.Len() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d models loaded", store.Len())}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no models"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := server.New(store, vectorCache, reg, m, cfg.Vectorizer.MaxTokens)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/vectorize", h.Vectorize)
	mux.HandleFunc("GET /api/v1/models", h.ListModels)
	mux.HandleFunc("POST /api/v1/models", h.UploadModel)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("vectorize service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("vectorize service stopped")
}
