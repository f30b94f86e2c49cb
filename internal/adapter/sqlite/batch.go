package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kahakai/mentionmap/internal/domain"
)

// Batch is one write transaction. The ingestion pipeline accumulates a fixed
// number of content units per Batch and then commits, so a fault mid-run
// loses at most the in-flight batch while earlier commits stay intact.
//
// Every create returns the new row identity before any dependent write is
// issued: a Post exists before its Mentions, a Location before any Mention
// referencing it.
type Batch struct {
	tx *sql.Tx
}

// Begin starts a write batch.
func (s *Store) Begin(ctx context.Context) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// Commit makes the batch durable.
func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. Safe to call after Commit.
func (b *Batch) Rollback() error {
	err := b.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// PostExists reports whether a post with the given external identifier is
// already stored (committed or pending in this batch).
func (b *Batch) PostExists(ctx context.Context, externalID string) (bool, error) {
	var one int
	err := b.tx.QueryRowContext(ctx,
		`SELECT 1 FROM posts WHERE external_id = ?`, externalID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup post %s: %w", externalID, err)
	}
	return true, nil
}

// CreatePost inserts a post and sets its identity.
func (b *Batch) CreatePost(ctx context.Context, p *domain.Post) error {
	res, err := b.tx.ExecContext(ctx, `
		INSERT INTO posts (external_id, title, body, channel, posted_at, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ExternalID, p.Title, p.Body, p.Channel, p.PostedAt.UTC(), p.ScrapedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create post %s: %w", p.ExternalID, ErrConflict)
		}
		return fmt.Errorf("create post %s: %w", p.ExternalID, err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	return nil
}

// GetOrCreateLocation resolves a Location by case-insensitive exact name
// match, creating it when absent. On return loc carries the persisted row,
// including its identity; for an existing row the stored canonical fields win
// over the caller's. Reports whether a new row was created.
func (b *Batch) GetOrCreateLocation(ctx context.Context, loc *domain.Location) (bool, error) {
	// The name column is COLLATE NOCASE, so equality is case-insensitive.
	err := b.tx.QueryRowContext(ctx, `
		SELECT id, name, lat, lng, place_type, city, state, created_at
		FROM locations WHERE name = ?`, loc.Name).
		Scan(&loc.ID, &loc.Name, &loc.Lat, &loc.Lng, &loc.PlaceType, &loc.City, &loc.State, &loc.CreatedAt)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup location %q: %w", loc.Name, err)
	}

	res, err := b.tx.ExecContext(ctx, `
		INSERT INTO locations (name, lat, lng, place_type, city, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		loc.Name, loc.Lat, loc.Lng, loc.PlaceType, loc.City, loc.State, loc.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent writer created the same name between our lookup
			// and insert. Surface it; callers treat this as a per-unit fault.
			return false, fmt.Errorf("create location %q: %w", loc.Name, ErrConflict)
		}
		return false, fmt.Errorf("create location %q: %w", loc.Name, err)
	}

	loc.ID, err = res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("location id: %w", err)
	}
	return true, nil
}

// CreateMention inserts a mention fact. Both referenced rows must already be
// persisted.
func (b *Batch) CreateMention(ctx context.Context, m *domain.Mention) error {
	res, err := b.tx.ExecContext(ctx, `
		INSERT INTO mentions (location_id, post_id, sentiment_score, context, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.LocationID, m.PostID, m.SentimentScore, m.Context, m.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create mention: %w", err)
	}

	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("mention id: %w", err)
	}
	return nil
}
