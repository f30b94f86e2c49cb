// Package config loads service settings from environment variables, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabasePath    string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Content source configuration.
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	RedditTimeout      time.Duration
	Channels           []string
	FetchLimit         int
	CommitEvery        int
	IngestSchedule     string

	// Nominatim geocoding configuration.
	GeocoderEnabled     bool
	GeocoderBaseURL     string
	GeocoderState       string
	GeocoderMinInterval time.Duration
	GeocoderTimeout     time.Duration
	GeocoderCacheSize   int

	// Optional mention event publishing.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether mention events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	redditTimeout, err := parseDuration("REDDIT_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	geocoderMinInterval, err := parseDuration("GEOCODER_MIN_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	fetchLimit, err := parseInt("FETCH_LIMIT", 25)
	if err != nil {
		return nil, err
	}
	commitEvery, err := parseInt("COMMIT_EVERY", 10)
	if err != nil {
		return nil, err
	}
	geocoderCacheSize, err := parseInt("GEOCODER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabasePath:    envOrDefault("DATABASE_PATH", "mentionmap.db"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    envOrDefault("REDDIT_USER_AGENT", "mentionmap/1.0"),
		RedditTimeout:      redditTimeout,
		Channels:           splitList(envOrDefault("CHANNELS", "Hawaii,VisitingHawaii")),
		FetchLimit:         fetchLimit,
		CommitEvery:        commitEvery,
		IngestSchedule:     os.Getenv("INGEST_SCHEDULE"),

		GeocoderEnabled:     os.Getenv("GEOCODER_ENABLED") == "true",
		GeocoderBaseURL:     os.Getenv("GEOCODER_BASE_URL"),
		GeocoderState:       envOrDefault("GEOCODER_STATE", "Hawaii"),
		GeocoderMinInterval: geocoderMinInterval,
		GeocoderTimeout:     geocoderTimeout,
		GeocoderCacheSize:   geocoderCacheSize,

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "mention-events"),
	}

	if cfg.DatabasePath == "" {
		return nil, errors.New("DATABASE_PATH is required")
	}
	if cfg.FetchLimit < 1 || cfg.FetchLimit > 100 {
		return nil, errors.New("FETCH_LIMIT must be between 1 and 100")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("CHANNELS is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
