package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lhnows1/textvec/internal/model"
	"github.com/lhnows1/textvec/internal/stream"
	"github.com/lhnows1/textvec/pkg/config"
	"github.com/lhnows1/textvec/pkg/kafka"
	"github.com/lhnows1/textvec/pkg/logger"
	"github.com/lhnows1/textvec/pkg/metrics"
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
	slog.Info("starting stream worker",
		"brokers", cfg.Kafka.Brokers,
		"requests_topic", cfg.Kafka.Topics.FeatureRequests,
		"vectors_topic", cfg.Kafka.Topics.FeatureVectors,
	)

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
		slog.Info("model loaded", "model", md.Name, "patterns", entry.Extractor.PoolSize())
	}
	if store.Len() == 0 {
		slog.Error("no models loaded, nothing to match", "dir", cfg.Vectorizer.ModelDir)
		os.Exit(1)
	}
	if m != nil {
		m.ModelsLoaded.Set(float64(store.Len()))
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.FeatureVectors)
	defer producer.Close()

	worker := stream.New(store, producer, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.FeatureRequests, worker.Handle)
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}

	slog.Info("stream worker stopped")
}
