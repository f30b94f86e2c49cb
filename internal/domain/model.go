package domain

import (
	"strings"
	"time"
)

// ContentUnit is one unit of source content: a submission or a comment.
type ContentUnit struct {
	ExternalID string
	Title      string
	Body       string
	Channel    string
	PostedAt   time.Time
}

// Text returns the title and body concatenated for extraction and scoring.
func (u ContentUnit) Text() string {
	return strings.TrimSpace(strings.TrimSpace(u.Title) + " " + strings.TrimSpace(u.Body))
}

// Location is a physical place. Name is unique case-insensitively.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	PlaceType string    `json:"place_type"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is one persisted content unit, deduplicated by ExternalID.
type Post struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Channel    string    `json:"channel"`
	PostedAt   time.Time `json:"posted_at"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// Mention is the fact "this Post mentions this Location with this sentiment".
// Mentions are immutable once written.
type Mention struct {
	ID             int64     `json:"id"`
	LocationID     int64     `json:"location_id"`
	PostID         int64     `json:"post_id"`
	SentimentScore float64   `json:"sentiment_score"`
	Context        string    `json:"context"`
	CreatedAt      time.Time `json:"created_at"`
}

// MentionEvent is the denormalized record published for one created mention.
type MentionEvent struct {
	MentionID      int64     `json:"mention_id"`
	LocationID     int64     `json:"location_id"`
	LocationName   string    `json:"location_name"`
	PostExternalID string    `json:"post_external_id"`
	Channel        string    `json:"channel"`
	SentimentScore float64   `json:"sentiment_score"`
	Context        string    `json:"context"`
	CreatedAt      time.Time `json:"created_at"`
}

// Candidate is a place-mention candidate produced by the extractor.
// Gazetteer hits carry coordinates; heuristic hits do not.
type Candidate struct {
	Name      string
	PlaceType string
	City      string
	Coords    *Coordinates
}

// Resolved reports whether the candidate carries coordinates.
func (c Candidate) Resolved() bool {
	return c.Coords != nil
}
