package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/galehop/weather-desk/internal/adapter/http"
	kafkaadapter "github.com/galehop/weather-desk/internal/adapter/kafka"
	"github.com/galehop/weather-desk/internal/config"
	"github.com/galehop/weather-desk/internal/observability"
	"github.com/galehop/weather-desk/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		slog.Error("failed to load tables", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Kafka publishing is feature-flagged via KAFKA_BROKERS / PUBLISH_ENABLED.
	var publisher pipeline.SignalPublisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.PublishEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	desk := pipeline.New(cfg, tables, logger, metrics, clockwork.NewRealClock(), publisher)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.OutputDir, desk, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the pipeline watcher.
	go func() {
		if err := desk.Watch(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
