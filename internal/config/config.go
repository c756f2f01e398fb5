package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DistrictName    string
	ForceUpdate     bool
	RefreshInterval time.Duration

	FeedTimeout   time.Duration
	FeedVerifyTLS bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing of readings (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "60m")
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	forceUpdate, err := parseBool("FORCE_UPDATE", true)
	if err != nil {
		return nil, err
	}

	verifyTLS, err := parseBool("FEED_VERIFY_TLS", true)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DistrictName:    os.Getenv("DISTRICT_NAME"),
		ForceUpdate:     forceUpdate,
		RefreshInterval: refreshInterval,
		FeedTimeout:     feedTimeout,
		FeedVerifyTLS:   verifyTLS,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "fire-danger-readings"),
	}

	if cfg.DistrictName == "" {
		return nil, errors.New("DISTRICT_NAME is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when publishing is enabled")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid " + key)
	}
	return b, nil
}
