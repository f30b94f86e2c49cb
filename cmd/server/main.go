// Command server runs the read API and, when INGEST_SCHEDULE is set, the
// scheduled ingestion pipeline.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/kahakai/mentionmap/internal/adapter/http"
	kafkaadapter "github.com/kahakai/mentionmap/internal/adapter/kafka"
	"github.com/kahakai/mentionmap/internal/adapter/nominatim"
	"github.com/kahakai/mentionmap/internal/adapter/reddit"
	"github.com/kahakai/mentionmap/internal/adapter/sqlite"
	"github.com/kahakai/mentionmap/internal/config"
	"github.com/kahakai/mentionmap/internal/domain"
	"github.com/kahakai/mentionmap/internal/observability"
	"github.com/kahakai/mentionmap/internal/pipeline"
	"github.com/kahakai/mentionmap/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sched *scheduler.Scheduler
	var publisher *kafkaadapter.Publisher
	if cfg.IngestSchedule != "" {
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

		geocoder := buildGeocoder(cfg, metrics, logger)

		var pub pipeline.Publisher
		if cfg.KafkaEnabled() {
			publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
			pub = publisher
			logger.Info("mention event publishing enabled", "topic", cfg.KafkaTopic)
		}

		p := pipeline.New(source, pipeline.NewStore(store), geocoder, pub, logger, metrics, pipeline.Options{
			Channels:    cfg.Channels,
			FetchLimit:  cfg.FetchLimit,
			CommitEvery: cfg.CommitEvery,
			State:       cfg.GeocoderState,
		})

		sched = scheduler.New(logger)
		err = sched.Schedule(ctx, cfg.IngestSchedule, func(runCtx context.Context) {
			if _, err := p.Run(runCtx); err != nil {
				logger.Error("scheduled ingestion run failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("invalid INGEST_SCHEDULE", "schedule", cfg.IngestSchedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
		logger.Info("ingestion scheduled", "schedule", cfg.IngestSchedule, "channels", cfg.Channels)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
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
