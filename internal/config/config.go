package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir    string
	OutputDir  string
	TablesPath string
	StatePath  string
	HTTPAddr   string
	LogLevel   string
	LogFormat  string

	ShutdownTimeout time.Duration
	PollInterval    time.Duration

	// Kafka publishing of composite signals. Disabled when no brokers are set.
	KafkaBrokers   []string
	KafkaSinkTopic string
	PublishEnabled bool

	Engine Engine
}

// Engine holds the numeric tunables of the degree-day engine. The values are
// fixed at load time; components receive them by value and never mutate them.
type Engine struct {
	// BaseTempF is the degree-day base. Stored ledgers record the base they
	// were computed with; a mismatch on load is a configuration error.
	BaseTempF float64

	// Region is the CONUS crop box, 0–360 longitude convention.
	Region     domain.BoundingBox
	Resolution float64

	// Gaussian spread of anchor weights, in grid degrees.
	SigmaLat float64
	SigmaLon float64

	// SummerMonths are the CDD-dominant months for anomaly reporting.
	SummerMonths []time.Month

	// SignalThresholdHDD is the vs-normal band edge for BULLISH/BEARISH.
	SignalThresholdHDD float64

	// MinForecastDays marks run summaries with fewer days as short.
	MinForecastDays int

	// WindDroughtMS is the wind-speed baseline for the renewables proxy.
	WindDroughtMS float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := envDuration("POLL_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	baseTemp, err := envFloat("BASE_TEMP_F", domain.DefaultBaseTempF)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	publishEnabled := len(brokers) > 0
	if v := os.Getenv("PUBLISH_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:    envOrDefault("DATA_DIR", "data"),
		OutputDir:  envOrDefault("OUTPUT_DIR", "outputs"),
		TablesPath: os.Getenv("TABLES_PATH"),
		StatePath:  envOrDefault("STATE_PATH", "data/pipeline_state.json"),
		HTTPAddr:   envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		LogFormat:  envOrDefault("LOG_FORMAT", "json"),

		ShutdownTimeout: shutdownTimeout,
		PollInterval:    pollInterval,

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "desk-composite-signals"),
		PublishEnabled: publishEnabled,

		Engine: DefaultEngine(baseTemp),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.Engine.BaseTempF <= 0 {
		return nil, errors.New("BASE_TEMP_F must be positive")
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.PublishEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when publishing is enabled")
	}

	return cfg, nil
}

// DefaultEngine returns the engine tunables with the given degree-day base.
func DefaultEngine(baseTempF float64) Engine {
	return Engine{
		BaseTempF: baseTempF,
		Region: domain.BoundingBox{
			LatMin: 25.0, LatMax: 50.0,
			LonMin: 235.0, LonMax: 295.0,
		},
		Resolution:         0.25,
		SigmaLat:           2.5,
		SigmaLon:           3.0,
		SummerMonths:       []time.Month{time.June, time.July, time.August},
		SignalThresholdHDD: 0.5,
		MinForecastDays:    10,
		WindDroughtMS:      6.0,
	}
}

// IsSummer reports whether m is a CDD-dominant month.
func (e Engine) IsSummer(m time.Month) bool {
	for _, s := range e.SummerMonths {
		if s == m {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
