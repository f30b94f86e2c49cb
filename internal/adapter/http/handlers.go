package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kahakai/mentionmap/internal/adapter/sqlite"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// geoJSON response shapes for the heatmap endpoint.

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   pointGeometry     `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type pointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

type featureProperties struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	MentionCount int64   `json:"mention_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
	PlaceType    string  `json:"place_type"`
	City         string  `json:"city"`
}

type searchResult struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	PlaceType    string  `json:"place_type"`
	City         string  `json:"city"`
	MentionCount int64   `json:"mention_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

type locationDetail struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Lat          float64         `json:"lat"`
	Lng          float64         `json:"lng"`
	PlaceType    string          `json:"place_type"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	MentionCount int64           `json:"mention_count"`
	AvgSentiment float64         `json:"avg_sentiment"`
	Mentions     []mentionDetail `json:"mentions"`
}

type mentionDetail struct {
	ID             int64      `json:"id"`
	SentimentScore float64    `json:"sentiment_score"`
	Context        string     `json:"context"`
	CreatedAt      time.Time  `json:"created_at"`
	Post           postDetail `json:"post"`
}

type postDetail struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Channel    string    `json:"channel"`
	PostedAt   time.Time `json:"posted_at"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	tr, err := sqlite.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bounds, err := parseBounds(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.store.Heatmap(r.Context(), tr, bounds)
	if err != nil {
		s.logger.Error("heatmap query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}
	for _, ls := range stats {
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: pointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{ls.Lng, ls.Lat},
			},
			Properties: featureProperties{
				ID:           ls.Location.ID,
				Name:         ls.Name,
				MentionCount: ls.MentionCount,
				AvgSentiment: round2(ls.AvgSentiment),
				PlaceType:    ls.PlaceType,
				City:         ls.City,
			},
		})
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	tr, err := sqlite.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxSearchLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
	}

	stats, err := s.store.SearchLocations(r.Context(), q, tr, limit)
	if err != nil {
		s.logger.Error("search query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	results := []searchResult{}
	for _, ls := range stats {
		results = append(results, searchResult{
			ID:           ls.Location.ID,
			Name:         ls.Name,
			PlaceType:    ls.PlaceType,
			City:         ls.City,
			MentionCount: ls.MentionCount,
			AvgSentiment: round2(ls.AvgSentiment),
		})
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleLocationDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	stats, recent, err := s.store.LocationDetail(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	if err != nil {
		s.logger.Error("detail query failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	detail := locationDetail{
		ID:           stats.Location.ID,
		Name:         stats.Name,
		Lat:          stats.Lat,
		Lng:          stats.Lng,
		PlaceType:    stats.PlaceType,
		City:         stats.City,
		State:        stats.State,
		CreatedAt:    stats.CreatedAt,
		MentionCount: stats.MentionCount,
		AvgSentiment: round2(stats.AvgSentiment),
		Mentions:     []mentionDetail{},
	}
	for _, m := range recent {
		detail.Mentions = append(detail.Mentions, mentionDetail{
			ID:             m.ID,
			SentimentScore: m.SentimentScore,
			Context:        m.Context,
			CreatedAt:      m.CreatedAt,
			Post: postDetail{
				ID:         m.Post.ID,
				ExternalID: m.Post.ExternalID,
				Title:      m.Post.Title,
				Body:       m.Post.Body,
				Channel:    m.Post.Channel,
				PostedAt:   m.Post.PostedAt,
				ScrapedAt:  m.Post.ScrapedAt,
			},
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

// parseBounds reads the optional bounding box. The filter applies only when
// all four parameters are present; an incomplete box is ignored.
func parseBounds(r *http.Request) (*sqlite.Bounds, error) {
	keys := [4]string{"min_lat", "max_lat", "min_lng", "max_lng"}
	var vals [4]float64
	present := 0

	for i, key := range keys {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("invalid " + key)
		}
		vals[i] = v
		present++
	}

	if present < 4 {
		return nil, nil
	}
	return &sqlite.Bounds{MinLat: vals[0], MaxLat: vals[1], MinLng: vals[2], MaxLng: vals[3]}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
