// Package pipeline orchestrates one ingestion run: fetch content units from
// the configured channels, extract place candidates, score sentiment, and
// persist posts, locations, and mentions in batched transactions.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kahakai/mentionmap/internal/adapter/sqlite"
	"github.com/kahakai/mentionmap/internal/domain"
	"github.com/kahakai/mentionmap/internal/observability"
	"github.com/kahakai/mentionmap/internal/sentiment"
)

// contextWindow is the number of characters kept either side of a matched
// place name in the mention context snippet.
const contextWindow = 100

// ContentSource fetches the newest content units for a channel.
type ContentSource interface {
	FetchChannel(ctx context.Context, channel string, limit int) ([]domain.ContentUnit, error)
}

// Batch is one write transaction against the store.
type Batch interface {
	PostExists(ctx context.Context, externalID string) (bool, error)
	CreatePost(ctx context.Context, p *domain.Post) error
	GetOrCreateLocation(ctx context.Context, loc *domain.Location) (bool, error)
	CreateMention(ctx context.Context, m *domain.Mention) error
	Commit() error
	Rollback() error
}

// Store begins write batches.
type Store interface {
	Begin(ctx context.Context) (Batch, error)
}

// NewStore adapts the sqlite store to the Store interface.
func NewStore(s *sqlite.Store) Store {
	return sqliteStore{s}
}

type sqliteStore struct {
	s *sqlite.Store
}

func (a sqliteStore) Begin(ctx context.Context) (Batch, error) {
	return a.s.Begin(ctx)
}

// Publisher receives the mention events of a committed batch. Pass nil to
// disable publishing.
type Publisher interface {
	PublishBatch(ctx context.Context, events []domain.MentionEvent) error
}

// Options tunes a pipeline run.
type Options struct {
	Channels    []string
	FetchLimit  int
	CommitEvery int
	// State qualifies forward-geocode queries, e.g. "Hawaii".
	State string
}

// Stats summarizes one ingestion run.
type Stats struct {
	UnitsFetched     int
	Duplicates       int
	EmptyText        int
	NoCandidates     int
	Failed           int
	PostsCreated     int
	LocationsCreated int
	MentionsCreated  int
	ChannelErrors    int
}

// Pipeline runs ingestion. It is single-writer: callers must not run two
// ingestions concurrently against the same store.
type Pipeline struct {
	source    ContentSource
	store     Store
	extractor *domain.Extractor
	analyzer  *sentiment.Analyzer
	geocoder  domain.Geocoder
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
}

// New creates a Pipeline. Pass a nil geocoder to drop unresolved candidates
// without enrichment, and a nil publisher to skip event publishing.
func New(source ContentSource, store Store, geocoder domain.Geocoder, publisher Publisher,
	logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.CommitEvery <= 0 {
		opts.CommitEvery = 10
	}
	return &Pipeline{
		source:    source,
		store:     store,
		extractor: domain.NewExtractor(),
		analyzer:  sentiment.NewAnalyzer(),
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// Run executes one complete ingestion pass over all configured channels.
// A failure fetching one channel is counted and the run continues with the
// rest; only context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)
	defer func() {
		p.metrics.IngestRunDuration.Observe(time.Since(start).Seconds())
	}()

	var stats Stats
	var units []domain.ContentUnit
	for _, channel := range p.opts.Channels {
		fetched, err := p.source.FetchChannel(ctx, channel, p.opts.FetchLimit)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			p.logger.Error("channel fetch failed", "channel", channel, "error", err)
			stats.ChannelErrors++
			continue
		}
		units = append(units, fetched...)
	}

	stats.UnitsFetched = len(units)
	p.metrics.UnitsFetched.Add(float64(len(units)))

	if err := p.ingest(ctx, units, &stats); err != nil {
		return stats, err
	}

	p.logger.Info("ingestion run complete",
		"units", stats.UnitsFetched,
		"duplicates", stats.Duplicates,
		"empty", stats.EmptyText,
		"no_candidates", stats.NoCandidates,
		"failed", stats.Failed,
		"posts", stats.PostsCreated,
		"locations", stats.LocationsCreated,
		"mentions", stats.MentionsCreated,
		"channel_errors", stats.ChannelErrors,
		"duration", time.Since(start),
	)
	return stats, nil
}

// ingest processes units sequentially, committing every CommitEvery persisted
// units and once at the end. A persistence fault discards only the in-flight
// batch; earlier commits stay intact.
func (p *Pipeline) ingest(ctx context.Context, units []domain.ContentUnit, stats *Stats) error {
	batch, err := p.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if batch != nil {
			_ = batch.Rollback()
		}
	}()

	var pending []domain.MentionEvent
	inBatch := 0

	for _, unit := range units {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		events, err := p.processUnit(ctx, batch, unit, stats)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("unit failed, discarding in-flight batch",
				"external_id", unit.ExternalID, "error", err)
			stats.Failed++
			p.metrics.UnitsFailed.Inc()

			_ = batch.Rollback()
			pending = nil
			inBatch = 0
			if batch, err = p.store.Begin(ctx); err != nil {
				return fmt.Errorf("begin batch: %w", err)
			}
			continue
		}
		if events == nil {
			continue
		}

		pending = append(pending, events...)
		inBatch++

		if inBatch >= p.opts.CommitEvery {
			if err := p.commit(ctx, batch, pending); err != nil {
				return err
			}
			p.metrics.BatchSize.Observe(float64(inBatch))
			pending = nil
			inBatch = 0
			if batch, err = p.store.Begin(ctx); err != nil {
				return fmt.Errorf("begin batch: %w", err)
			}
		}
	}

	if inBatch > 0 {
		if err := p.commit(ctx, batch, pending); err != nil {
			return err
		}
		p.metrics.BatchSize.Observe(float64(inBatch))
	} else {
		_ = batch.Rollback()
	}
	batch = nil
	return nil
}

// processUnit runs steps for a single content unit. A nil event slice with a
// nil error means the unit was skipped; a non-nil (possibly empty) slice means
// the unit was persisted.
func (p *Pipeline) processUnit(ctx context.Context, batch Batch, unit domain.ContentUnit, stats *Stats) ([]domain.MentionEvent, error) {
	exists, err := batch.PostExists(ctx, unit.ExternalID)
	if err != nil {
		return nil, err
	}
	if exists {
		stats.Duplicates++
		p.metrics.UnitsSkipped.WithLabelValues("duplicate").Inc()
		return nil, nil
	}

	text := unit.Text()
	if text == "" {
		stats.EmptyText++
		p.metrics.UnitsSkipped.WithLabelValues("empty").Inc()
		return nil, nil
	}

	candidates := p.extractor.Extract(text)
	if len(candidates) == 0 {
		stats.NoCandidates++
		p.metrics.UnitsSkipped.WithLabelValues("no_candidates").Inc()
		return nil, nil
	}

	post := &domain.Post{
		ExternalID: unit.ExternalID,
		Title:      unit.Title,
		Body:       unit.Body,
		Channel:    unit.Channel,
		PostedAt:   unit.PostedAt,
		ScrapedAt:  domain.Now(),
	}
	if err := batch.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	stats.PostsCreated++

	events := []domain.MentionEvent{}
	for _, cand := range candidates {
		coords, err := p.resolve(ctx, cand)
		if err != nil {
			return nil, err
		}
		if coords == nil {
			continue
		}

		loc := &domain.Location{
			Name:      cand.Name,
			Lat:       coords.Lat,
			Lng:       coords.Lng,
			PlaceType: cand.PlaceType,
			City:      cand.City,
			State:     "HI",
			CreatedAt: domain.Now(),
		}
		created, err := batch.GetOrCreateLocation(ctx, loc)
		if err != nil {
			return nil, err
		}
		if created {
			stats.LocationsCreated++
			p.metrics.LocationsCreated.Inc()
		}

		snippet := p.extractor.ExtractContext(text, cand.Name, contextWindow)
		mention := &domain.Mention{
			LocationID:     loc.ID,
			PostID:         post.ID,
			SentimentScore: p.analyzer.Analyze(snippet),
			Context:        snippet,
			CreatedAt:      domain.Now(),
		}
		if err := batch.CreateMention(ctx, mention); err != nil {
			return nil, err
		}
		stats.MentionsCreated++
		p.metrics.MentionsCreated.Inc()

		events = append(events, domain.MentionEvent{
			MentionID:      mention.ID,
			LocationID:     loc.ID,
			LocationName:   loc.Name,
			PostExternalID: post.ExternalID,
			Channel:        post.Channel,
			SentimentScore: mention.SentimentScore,
			Context:        mention.Context,
			CreatedAt:      mention.CreatedAt,
		})
	}

	return events, nil
}

// resolve returns coordinates for a candidate. Gazetteer hits already carry
// them; unresolved candidates are forward-geocoded when a geocoder is
// configured, and dropped otherwise.
func (p *Pipeline) resolve(ctx context.Context, cand domain.Candidate) (*domain.Coordinates, error) {
	if cand.Resolved() {
		return cand.Coords, nil
	}
	if p.geocoder == nil {
		return nil, nil
	}
	coords, err := p.geocoder.Geocode(ctx, cand.Name, cand.City, p.opts.State)
	if err != nil {
		// Geocoder implementations only surface context cancellation.
		return nil, err
	}
	if coords == nil {
		p.logger.Debug("candidate unresolved, dropping", "name", cand.Name)
	}
	return coords, nil
}

// commit makes the batch durable and hands its mention events to the
// publisher. Publish failures are logged but never fail the run.
func (p *Pipeline) commit(ctx context.Context, batch Batch, events []domain.MentionEvent) error {
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	if p.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := p.publisher.PublishBatch(ctx, events); err != nil {
		p.logger.Warn("publish mention events failed", "events", len(events), "error", err)
	}
	return nil
}
