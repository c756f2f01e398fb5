package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fire-danger-service/internal/adapter/feedhttp"
	"github.com/couchcryptid/fire-danger-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/fire-danger-service/internal/adapter/kafka"
	"github.com/couchcryptid/fire-danger-service/internal/config"
	"github.com/couchcryptid/fire-danger-service/internal/domain"
	"github.com/couchcryptid/fire-danger-service/internal/observability"
	"github.com/couchcryptid/fire-danger-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	jurisdiction := domain.JurisdictionFor(cfg.DistrictName)
	logger.Info("district jurisdiction resolved",
		"district", cfg.DistrictName,
		"jurisdiction", jurisdiction.Key,
		"attribution", jurisdiction.Attribution,
	)

	client := feedhttp.NewClient(cfg.FeedTimeout, cfg.FeedVerifyTLS, metrics, logger)
	source := domain.NewSource(jurisdiction, client, logger)
	sensor := pipeline.NewSensor(source, cfg.DistrictName, cfg.ForceUpdate, logger)

	// Publishing is optional (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(sensor, publisher, logger, metrics, cfg.RefreshInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh scheduler.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
