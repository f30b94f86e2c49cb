package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/kahakai/mentionmap/internal/adapter/http"
	"github.com/kahakai/mentionmap/internal/adapter/reddit"
	"github.com/kahakai/mentionmap/internal/adapter/sqlite"
	"github.com/kahakai/mentionmap/internal/observability"
	"github.com/kahakai/mentionmap/internal/pipeline"
)

const hawaiiListing = `{
	"data": {
		"children": [
			{"data": {"name": "t3_e2e1", "title": "Loved Waikiki Beach",
				"selftext": "crowded but the water was perfect", "subreddit": "Hawaii", "created_utc": 1750000000}},
			{"data": {"name": "t3_e2e2", "title": "Hiked Diamond Head at dawn",
				"selftext": "incredible views, then poke at Ono Seafood", "subreddit": "Hawaii", "created_utc": 1750003600}},
			{"data": {"name": "t3_e2e3", "title": "Rainy day, stayed in", "selftext": "", "subreddit": "Hawaii", "created_utc": 1750007200}}
		]
	}
}`

// newRedditStub serves a fixed OAuth token and one canned listing.
func newRedditStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/r/Hawaii/new.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hawaiiListing))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestIngestThenQuery drives the full path: fetch from a stubbed source,
// extract and score, persist, and read the aggregates back over the API.
func TestIngestThenQuery(t *testing.T) {
	stub := newRedditStub(t)

	source, err := reddit.NewClient(reddit.Options{
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
		AuthURL:      stub.URL,
		APIURL:       stub.URL,
	}, observability.NewTestLogger())
	require.NoError(t, err)

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := observability.NewTestLogger()
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(source, pipeline.NewStore(store), nil, nil, logger, metrics, pipeline.Options{
		Channels:   []string{"Hawaii"},
		FetchLimit: 25,
	})

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.UnitsFetched)
	assert.Equal(t, 1, stats.NoCandidates)
	assert.Equal(t, 2, stats.PostsCreated)
	assert.Equal(t, 3, stats.MentionsCreated)

	srv := httpadapter.NewServer(":0", store, logger)

	t.Run("heatmap reflects ingested mentions", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heatmap", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var fc struct {
			Features []struct {
				Properties struct {
					Name         string  `json:"name"`
					MentionCount int64   `json:"mention_count"`
					AvgSentiment float64 `json:"avg_sentiment"`
				} `json:"properties"`
			} `json:"features"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
		require.Len(t, fc.Features, 3)

		names := map[string]int64{}
		for _, f := range fc.Features {
			names[f.Properties.Name] = f.Properties.MentionCount
		}
		assert.Equal(t, int64(1), names["Waikiki Beach"])
		assert.Equal(t, int64(1), names["Diamond Head"])
		assert.Equal(t, int64(1), names["Ono Seafood"])
	})

	t.Run("search finds the restaurant", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations/search?q=seafood", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var results []struct {
			Name      string `json:"name"`
			PlaceType string `json:"place_type"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "Ono Seafood", results[0].Name)
		assert.Equal(t, "restaurant", results[0].PlaceType)
	})

	t.Run("re-ingestion is idempotent", func(t *testing.T) {
		stats, err := p.Run(context.Background())
		require.NoError(t, err)
		// The candidate-less unit never created a post, so it is counted as
		// no-candidates again rather than as a duplicate.
		assert.Equal(t, 2, stats.Duplicates)
		assert.Equal(t, 1, stats.NoCandidates)

		counts, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sqlite.Counts{Locations: 3, Posts: 2, Mentions: 3}, counts)
	})
}
