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

	"github.com/couchcryptid/weather-alarm-service/internal/adapter/homeassistant"
	httpadapter "github.com/couchcryptid/weather-alarm-service/internal/adapter/http"
	"github.com/couchcryptid/weather-alarm-service/internal/adapter/kafkaevents"
	"github.com/couchcryptid/weather-alarm-service/internal/config"
	"github.com/couchcryptid/weather-alarm-service/internal/engine"
	"github.com/couchcryptid/weather-alarm-service/internal/observability"
	"github.com/couchcryptid/weather-alarm-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	alarms, err := config.LoadAlarms(cfg.AlarmsFile, logger)
	if err != nil {
		logger.Error("failed to load alarm definitions", "file", cfg.AlarmsFile, "error", err)
		os.Exit(1)
	}
	if len(alarms) == 0 {
		logger.Warn("no alarm definition validated; service will report not ready")
	}

	ha := homeassistant.NewClient(cfg.HomeAssistantURL, cfg.HomeAssistantToken,
		cfg.HomeAssistantTimeout, logger)

	// Audit event publishing (feature-flagged via KAFKA_EVENTS_ENABLED / KAFKA_BROKERS).
	var events engine.EventPublisher
	var publisher *kafkaevents.Publisher
	if cfg.KafkaEventsEnabled {
		publisher = kafkaevents.NewPublisher(cfg, logger)
		events = publisher
		logger.Info("kafka event publishing enabled", "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("kafka event publishing disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(clock, logger)
	go sched.Run(ctx)

	var ready httpadapter.CheckerGroup
	for _, alarmCfg := range alarms {
		a := engine.New(alarmCfg, ha, ha, events, clock, logger, metrics)
		a.Register(ctx, sched)
		ready = append(ready, a)
		logger.Info("alarm registered", "alarm", a.Name(),
			"schedule", string(alarmCfg.Schedule.Mode), "recipients", len(alarmCfg.Recipients))
	}
	metrics.ActiveAlarms.Set(float64(len(ready)))

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, logger)

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
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
