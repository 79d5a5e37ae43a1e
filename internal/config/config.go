package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config lists the tunable parameters for the presence engine.
type Config struct {
	Environment string
	LogLevel    string

	HTTPAddr     string
	DatabasePath string

	// Remote validator endpoint and the device credential presented on
	// every call.
	RemoteBaseURL string
	DeviceToken   string
	DeviceID      string

	TagWaitTimeout  time.Duration
	LocationTimeout time.Duration
	SubmitTimeout   time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration

	CaptureRateLimit  int
	CaptureRateWindow time.Duration

	MQTT    MQTTConfig
	Tracing TracingConfig
}

// MQTTConfig controls the optional hardware bridge listening for tag scans
// and location fixes published by device agents.
type MQTTConfig struct {
	Enabled   bool
	BrokerURL string
	ClientID  string
	TagTopic  string
	FixTopic  string
}

// TracingConfig controls the OTLP exporter.
type TracingConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

const (
	defaultHTTPAddr        = ":8321"
	defaultDatabasePath    = "data/presence.db"
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultTagWaitTimeout  = 30 * time.Second
	defaultLocationTimeout = 15 * time.Second
	defaultSubmitTimeout   = 10 * time.Second
	defaultRetryAttempts   = 3
	defaultRetryDelay      = 2 * time.Second
	defaultRateLimit       = 5
	defaultRateWindow      = time.Minute
	defaultMQTTTagTopic    = "presence/tag"
	defaultMQTTFixTopic    = "presence/fix"
)

// Load derives configuration values from environment variables, falling back
// to defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment:       defaultEnvironment,
		LogLevel:          defaultLogLevel,
		HTTPAddr:          defaultHTTPAddr,
		DatabasePath:      defaultDatabasePath,
		TagWaitTimeout:    defaultTagWaitTimeout,
		LocationTimeout:   defaultLocationTimeout,
		SubmitTimeout:     defaultSubmitTimeout,
		RetryAttempts:     defaultRetryAttempts,
		RetryDelay:        defaultRetryDelay,
		CaptureRateLimit:  defaultRateLimit,
		CaptureRateWindow: defaultRateWindow,
		MQTT: MQTTConfig{
			TagTopic: defaultMQTTTagTopic,
			FixTopic: defaultMQTTFixTopic,
		},
		Tracing: TracingConfig{
			Protocol:      "grpc",
			SamplingRatio: 0.1,
		},
	}

	if v := os.Getenv("PRESENCE_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("PRESENCE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PRESENCE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("PRESENCE_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	cfg.RemoteBaseURL = strings.TrimRight(os.Getenv("PRESENCE_REMOTE_URL"), "/")
	if cfg.RemoteBaseURL == "" {
		return Config{}, fmt.Errorf("PRESENCE_REMOTE_URL is required")
	}
	cfg.DeviceToken = os.Getenv("PRESENCE_DEVICE_TOKEN")
	cfg.DeviceID = os.Getenv("PRESENCE_DEVICE_ID")

	var err error
	if cfg.TagWaitTimeout, err = durationEnv("PRESENCE_TAG_WAIT_TIMEOUT", cfg.TagWaitTimeout); err != nil {
		return Config{}, err
	}
	if cfg.LocationTimeout, err = durationEnv("PRESENCE_LOCATION_TIMEOUT", cfg.LocationTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SubmitTimeout, err = durationEnv("PRESENCE_SUBMIT_TIMEOUT", cfg.SubmitTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RetryDelay, err = durationEnv("PRESENCE_RETRY_DELAY", cfg.RetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.RetryAttempts, err = intEnv("PRESENCE_RETRY_ATTEMPTS", cfg.RetryAttempts); err != nil {
		return Config{}, err
	}
	if cfg.CaptureRateLimit, err = intEnv("PRESENCE_CAPTURE_RATE_LIMIT", cfg.CaptureRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.CaptureRateWindow, err = durationEnv("PRESENCE_CAPTURE_RATE_WINDOW", cfg.CaptureRateWindow); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("PRESENCE_MQTT_BROKER"); v != "" {
		cfg.MQTT.Enabled = true
		cfg.MQTT.BrokerURL = v
	}
	if v := os.Getenv("PRESENCE_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.ClientID = v
	}
	if v := os.Getenv("PRESENCE_MQTT_TAG_TOPIC"); v != "" {
		cfg.MQTT.TagTopic = v
	}
	if v := os.Getenv("PRESENCE_MQTT_FIX_TOPIC"); v != "" {
		cfg.MQTT.FixTopic = v
	}

	if v := os.Getenv("PRESENCE_TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PRESENCE_TRACING_ENABLED: %w", err)
		}
		cfg.Tracing.Enabled = enabled
	}
	if v := os.Getenv("PRESENCE_TRACING_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := os.Getenv("PRESENCE_TRACING_PROTOCOL"); v != "" {
		cfg.Tracing.Protocol = v
	}
	if v := os.Getenv("PRESENCE_TRACING_SAMPLING_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PRESENCE_TRACING_SAMPLING_RATIO: %w", err)
		}
		cfg.Tracing.SamplingRatio = ratio
	}

	return cfg, nil
}

// IsProduction reports whether the engine runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
