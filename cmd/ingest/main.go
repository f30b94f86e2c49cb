// Command ingest runs one ingestion pass over the configured channels and
// exits. Suitable for cron-less setups and manual backfills.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/kahakai/mentionmap/internal/adapter/kafka"
	"github.com/kahakai/mentionmap/internal/adapter/nominatim"
	"github.com/kahakai/mentionmap/internal/adapter/reddit"
	"github.com/kahakai/mentionmap/internal/adapter/sqlite"
	"github.com/kahakai/mentionmap/internal/config"
	"github.com/kahakai/mentionmap/internal/domain"
	"github.com/kahakai/mentionmap/internal/observability"
	"github.com/kahakai/mentionmap/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	source, err := reddit.NewClient(reddit.Options{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		Timeout:      cfg.RedditTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create content source", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var pub pipeline.Publisher
	if cfg.KafkaEnabled() {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		pub = publisher
	}

	p := pipeline.New(source, pipeline.NewStore(store), buildGeocoder(cfg, metrics, logger), pub,
		logger, metrics, pipeline.Options{
			Channels:    cfg.Channels,
			FetchLimit:  cfg.FetchLimit,
			CommitEvery: cfg.CommitEvery,
			State:       cfg.GeocoderState,
		})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := p.Run(ctx); err != nil {
		logger.Error("ingestion run failed", "error", err)
		os.Exit(1)
	}
}

// buildGeocoder wires the feature-flagged Nominatim enrichment.
func buildGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	if !cfg.GeocoderEnabled {
		logger.Info("geocoding enrichment disabled")
		return nil
	}

	client := nominatim.NewClient(nominatim.Options{
		BaseURL:     cfg.GeocoderBaseURL,
		UserAgent:   cfg.RedditUserAgent,
		MinInterval: cfg.GeocoderMinInterval,
		Timeout:     cfg.GeocoderTimeout,
	}, metrics, logger)

	metrics.GeocodeEnabled.Set(1)
	logger.Info("geocoding enrichment enabled",
		"cache_size", cfg.GeocoderCacheSize, "min_interval", cfg.GeocoderMinInterval)
	return nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
}
