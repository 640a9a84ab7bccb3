package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/agrisahel/smartagribot/internal/adapter/http"
	kafkaadapter "github.com/agrisahel/smartagribot/internal/adapter/kafka"
	"github.com/agrisahel/smartagribot/internal/alert"
	"github.com/agrisahel/smartagribot/internal/chatbot"
	"github.com/agrisahel/smartagribot/internal/config"
	"github.com/agrisahel/smartagribot/internal/observability"
	"github.com/agrisahel/smartagribot/internal/store"
	"github.com/agrisahel/smartagribot/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	weatherClient := weather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherTimeout, metrics, logger)
	weatherService := weather.NewService(st, weatherClient, cfg.CacheDuration, metrics, logger)

	// Alert publication is feature-flagged via KAFKA_ENABLED.
	var publisher alert.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka alert publication enabled", "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publication disabled")
	}

	retention := time.Duration(cfg.AlertRetentionDays) * 24 * time.Hour
	alertEngine := alert.NewEngine(st, weatherService, publisher, retention, metrics, logger)

	bot := chatbot.NewService(st, weatherService, alertEngine, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, bot, alertEngine, st, weatherService, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
