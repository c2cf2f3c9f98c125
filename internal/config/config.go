// Package config loads service settings from the environment and alarm
// definitions from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	AlarmsFile string `envconfig:"ALARMS_FILE" default:"alarms.yaml"`

	// Home Assistant connection settings.
	HomeAssistantURL     string        `envconfig:"HOME_ASSISTANT_URL" default:"http://localhost:8123"`
	HomeAssistantToken   string        `envconfig:"HOME_ASSISTANT_TOKEN"`
	HomeAssistantTimeout time.Duration `envconfig:"HOME_ASSISTANT_TIMEOUT" default:"10s"`

	// Kafka notification-event audit stream.
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaEventsTopic string   `envconfig:"KAFKA_EVENTS_TOPIC" default:"weather-alarm-events"`

	// KafkaEventsEnabled is derived: publishing is on whenever brokers are
	// configured, unless KAFKA_EVENTS_ENABLED overrides it.
	KafkaEventsEnabled bool `ignored:"true"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.KafkaEventsEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_EVENTS_ENABLED"); v != "" {
		cfg.KafkaEventsEnabled = v == "true"
	}

	if cfg.HomeAssistantURL == "" {
		return nil, errors.New("HOME_ASSISTANT_URL is required")
	}
	if cfg.HomeAssistantToken == "" {
		return nil, errors.New("HOME_ASSISTANT_TOKEN is required")
	}
	if cfg.HomeAssistantTimeout <= 0 {
		return nil, errors.New("invalid HOME_ASSISTANT_TIMEOUT")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.KafkaEventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEventsEnabled && strings.TrimSpace(cfg.KafkaEventsTopic) == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when event publishing is enabled")
	}

	return &cfg, nil
}
