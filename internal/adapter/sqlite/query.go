package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kahakai/mentionmap/internal/domain"
)

// TimeRange selects the mention window for aggregation queries.
type TimeRange string

const (
	TimeRangeAll  TimeRange = "all"
	TimeRangeDay  TimeRange = "day"
	TimeRangeWeek TimeRange = "week"
)

// ParseTimeRange validates a query-string time range. Empty means "all".
func ParseTimeRange(s string) (TimeRange, error) {
	switch s {
	case "", string(TimeRangeAll):
		return TimeRangeAll, nil
	case string(TimeRangeDay):
		return TimeRangeDay, nil
	case string(TimeRangeWeek):
		return TimeRangeWeek, nil
	default:
		return "", fmt.Errorf("invalid time range %q", s)
	}
}

// cutoff returns the earliest mention creation time inside the range, and
// whether a cutoff applies at all ("all" has none).
func (r TimeRange) cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case TimeRangeDay:
		return now.Add(-24 * time.Hour), true
	case TimeRangeWeek:
		return now.Add(-7 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Bounds is a geographic bounding box filter. Callers supply either a
// complete box or none.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// LocationStats is a Location with its aggregated mention statistics.
// AvgSentiment is unrounded; the API boundary rounds for presentation.
type LocationStats struct {
	domain.Location
	MentionCount int64
	AvgSentiment float64
}

// MentionWithPost joins a mention to its originating post.
type MentionWithPost struct {
	domain.Mention
	Post domain.Post
}

const statsSelect = `
	SELECT l.id, l.name, l.lat, l.lng, l.place_type, l.city, l.state, l.created_at,
	       COUNT(m.id) AS mention_count,
	       COALESCE(AVG(m.sentiment_score), 0.0) AS avg_sentiment
	FROM locations l
	LEFT JOIN mentions m ON m.location_id = l.id`

// Heatmap aggregates qualifying mentions per location. Locations with zero
// qualifying mentions are produced by the outer join but included in the
// result only when the time range is "all".
func (s *Store) Heatmap(ctx context.Context, tr TimeRange, bounds *Bounds) ([]LocationStats, error) {
	query := statsSelect
	var args []any

	if cutoff, ok := tr.cutoff(domain.Now()); ok {
		query += ` AND m.created_at >= ?`
		args = append(args, cutoff)
	}
	if bounds != nil {
		query += ` WHERE l.lat BETWEEN ? AND ? AND l.lng BETWEEN ? AND ?`
		args = append(args, bounds.MinLat, bounds.MaxLat, bounds.MinLng, bounds.MaxLng)
	}
	query += ` GROUP BY l.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("heatmap query: %w", err)
	}
	defer rows.Close()

	var results []LocationStats
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		if stats.MentionCount > 0 || tr == TimeRangeAll {
			results = append(results, stats)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("heatmap rows: %w", err)
	}
	return results, nil
}

// SearchLocations matches locations whose name, city, state, or place type
// contains query case-insensitively, aggregated over the time range and
// ordered by mention count descending.
func (s *Store) SearchLocations(ctx context.Context, query string, tr TimeRange, limit int) ([]LocationStats, error) {
	sqlQuery := statsSelect
	var args []any

	if cutoff, ok := tr.cutoff(domain.Now()); ok {
		sqlQuery += ` AND m.created_at >= ?`
		args = append(args, cutoff)
	}

	pattern := "%" + query + "%"
	sqlQuery += `
	WHERE (l.name LIKE ? OR l.city LIKE ? OR l.state LIKE ? OR l.place_type LIKE ?)
	GROUP BY l.id
	ORDER BY mention_count DESC
	LIMIT ?`
	args = append(args, pattern, pattern, pattern, pattern, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []LocationStats
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return results, nil
}

// LocationDetail returns one location with its all-time aggregates and the
// 10 most recent mentions joined to their posts. Returns ErrNotFound for an
// unknown identity.
func (s *Store) LocationDetail(ctx context.Context, id int64) (*LocationStats, []MentionWithPost, error) {
	row := s.db.QueryRowContext(ctx, statsSelect+` WHERE l.id = ? GROUP BY l.id`, id)

	stats, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.location_id, m.post_id, m.sentiment_score, m.context, m.created_at,
		       p.id, p.external_id, p.title, p.body, p.channel, p.posted_at, p.scraped_at
		FROM mentions m
		JOIN posts p ON p.id = m.post_id
		WHERE m.location_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT 10`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("recent mentions: %w", err)
	}
	defer rows.Close()

	var recent []MentionWithPost
	for rows.Next() {
		var mp MentionWithPost
		err := rows.Scan(
			&mp.ID, &mp.LocationID, &mp.PostID, &mp.SentimentScore, &mp.Context, &mp.CreatedAt,
			&mp.Post.ID, &mp.Post.ExternalID, &mp.Post.Title, &mp.Post.Body, &mp.Post.Channel,
			&mp.Post.PostedAt, &mp.Post.ScrapedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan mention: %w", err)
		}
		recent = append(recent, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("mention rows: %w", err)
	}

	return &stats, recent, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStats(sc scanner) (LocationStats, error) {
	var stats LocationStats
	err := sc.Scan(
		&stats.Location.ID, &stats.Name, &stats.Lat, &stats.Lng, &stats.PlaceType,
		&stats.City, &stats.State, &stats.CreatedAt,
		&stats.MentionCount, &stats.AvgSentiment,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return LocationStats{}, err
	}
	if err != nil {
		return LocationStats{}, fmt.Errorf("scan location stats: %w", err)
	}
	return stats, nil
}
