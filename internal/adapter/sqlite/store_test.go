package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahakai/mentionmap/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestOpen_CreatesSchema(t *testing.T) {
	store := newTestStore(t)

	counts, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestBatch_CreatePost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.Begin(ctx)
	require.NoError(t, err)
	defer batch.Rollback()

	post := &domain.Post{
		ExternalID: "t3_abc123",
		Title:      "Best shave ice on Oahu?",
		Channel:    "VisitingHawaii",
		PostedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ScrapedAt:  time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
	}
	require.NoError(t, batch.CreatePost(ctx, post))
	assert.NotZero(t, post.ID)

	exists, err := batch.PostExists(ctx, "t3_abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = batch.PostExists(ctx, "t3_missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBatch_CreatePost_DuplicateExternalID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.Begin(ctx)
	require.NoError(t, err)
	defer batch.Rollback()

	post := &domain.Post{ExternalID: "t3_dup", Channel: "Hawaii", PostedAt: domain.Now(), ScrapedAt: domain.Now()}
	require.NoError(t, batch.CreatePost(ctx, post))

	dup := &domain.Post{ExternalID: "t3_dup", Channel: "Hawaii", PostedAt: domain.Now(), ScrapedAt: domain.Now()}
	err = batch.CreatePost(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBatch_GetOrCreateLocation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.Begin(ctx)
	require.NoError(t, err)
	defer batch.Rollback()

	loc := &domain.Location{
		Name:      "Waikiki Beach",
		Lat:       21.2793,
		Lng:       -157.8293,
		PlaceType: "beach",
		City:      "Honolulu",
		State:     "HI",
		CreatedAt: domain.Now(),
	}
	created, err := batch.GetOrCreateLocation(ctx, loc)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotZero(t, loc.ID)
	firstID := loc.ID

	t.Run("same name returns existing row", func(t *testing.T) {
		again := &domain.Location{Name: "Waikiki Beach", CreatedAt: domain.Now()}
		created, err := batch.GetOrCreateLocation(ctx, again)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, firstID, again.ID)
		assert.Equal(t, 21.2793, again.Lat)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		again := &domain.Location{Name: "WAIKIKI beach", CreatedAt: domain.Now()}
		created, err := batch.GetOrCreateLocation(ctx, again)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, firstID, again.ID)
		assert.Equal(t, "Waikiki Beach", again.Name)
	})

	t.Run("stored fields win over caller fields", func(t *testing.T) {
		again := &domain.Location{Name: "Waikiki Beach", Lat: 99, Lng: 99, PlaceType: "bogus"}
		_, err := batch.GetOrCreateLocation(ctx, again)
		require.NoError(t, err)
		assert.Equal(t, 21.2793, again.Lat)
		assert.Equal(t, "beach", again.PlaceType)
	})
}

func TestBatch_CreateMention(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.Begin(ctx)
	require.NoError(t, err)

	post := &domain.Post{ExternalID: "t3_m1", Channel: "Hawaii", PostedAt: domain.Now(), ScrapedAt: domain.Now()}
	require.NoError(t, batch.CreatePost(ctx, post))

	loc := &domain.Location{Name: "Hanauma Bay", Lat: 21.269, Lng: -157.6938, PlaceType: "beach", CreatedAt: domain.Now()}
	_, err = batch.GetOrCreateLocation(ctx, loc)
	require.NoError(t, err)

	mention := &domain.Mention{
		LocationID:     loc.ID,
		PostID:         post.ID,
		SentimentScore: 0.72,
		Context:        "snorkeling at Hanauma Bay was unreal",
		CreatedAt:      domain.Now(),
	}
	require.NoError(t, batch.CreateMention(ctx, mention))
	assert.NotZero(t, mention.ID)

	require.NoError(t, batch.Commit())

	counts, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Locations: 1, Posts: 1, Mentions: 1}, counts)
}

func TestBatch_RollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.Begin(ctx)
	require.NoError(t, err)

	post := &domain.Post{ExternalID: "t3_gone", Channel: "Hawaii", PostedAt: domain.Now(), ScrapedAt: domain.Now()}
	require.NoError(t, batch.CreatePost(ctx, post))
	require.NoError(t, batch.Rollback())

	counts, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Posts)
}

func TestBatch_RollbackAfterCommit(t *testing.T) {
	store := newTestStore(t)

	batch, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, batch.Commit())

	assert.NoError(t, batch.Rollback())
}

// seedStore loads a small fixture: three locations, two posts, and mentions
// with controlled timestamps relative to now.
func seedStore(t *testing.T, store *Store, now time.Time) (locIDs []int64) {
	t.Helper()
	ctx := context.Background()

	batch, err := store.Begin(ctx)
	require.NoError(t, err)

	locs := []*domain.Location{
		{Name: "Waikiki Beach", Lat: 21.2793, Lng: -157.8293, PlaceType: "beach", City: "Honolulu", State: "HI", CreatedAt: now},
		{Name: "Diamond Head", Lat: 21.2614, Lng: -157.8056, PlaceType: "park", City: "Honolulu", State: "HI", CreatedAt: now},
		{Name: "Mama's Fish House", Lat: 20.925, Lng: -156.3684, PlaceType: "restaurant", City: "Paia", State: "HI", CreatedAt: now},
	}
	for _, l := range locs {
		_, err := batch.GetOrCreateLocation(ctx, l)
		require.NoError(t, err)
		locIDs = append(locIDs, l.ID)
	}

	posts := []*domain.Post{
		{ExternalID: "t3_p1", Title: "trip report", Channel: "Hawaii", PostedAt: now.Add(-48 * time.Hour), ScrapedAt: now},
		{ExternalID: "t3_p2", Title: "food thread", Channel: "VisitingHawaii", PostedAt: now.Add(-2 * time.Hour), ScrapedAt: now},
	}
	for _, p := range posts {
		require.NoError(t, batch.CreatePost(ctx, p))
	}

	mentions := []*domain.Mention{
		// Waikiki: one recent positive, one old negative.
		{LocationID: locIDs[0], PostID: posts[1].ID, SentimentScore: 0.8, CreatedAt: now.Add(-1 * time.Hour)},
		{LocationID: locIDs[0], PostID: posts[0].ID, SentimentScore: -0.4, CreatedAt: now.Add(-72 * time.Hour)},
		// Diamond Head: one old mention only.
		{LocationID: locIDs[1], PostID: posts[0].ID, SentimentScore: 0.5, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		// Mama's Fish House: no mentions.
	}
	for _, m := range mentions {
		require.NoError(t, batch.CreateMention(ctx, m))
	}

	require.NoError(t, batch.Commit())
	return locIDs
}

func TestHeatmap(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	store := newTestStore(t)
	locIDs := seedStore(t, store, now)
	ctx := context.Background()

	byID := func(stats []LocationStats, id int64) *LocationStats {
		for i := range stats {
			if stats[i].Location.ID == id {
				return &stats[i]
			}
		}
		return nil
	}

	t.Run("all includes zero-mention locations", func(t *testing.T) {
		stats, err := store.Heatmap(ctx, TimeRangeAll, nil)
		require.NoError(t, err)
		require.Len(t, stats, 3)

		waikiki := byID(stats, locIDs[0])
		require.NotNil(t, waikiki)
		assert.Equal(t, int64(2), waikiki.MentionCount)
		assert.InDelta(t, 0.2, waikiki.AvgSentiment, 1e-9)

		fishHouse := byID(stats, locIDs[2])
		require.NotNil(t, fishHouse)
		assert.Zero(t, fishHouse.MentionCount)
		assert.Zero(t, fishHouse.AvgSentiment)
	})

	t.Run("day keeps only last 24h mentions", func(t *testing.T) {
		stats, err := store.Heatmap(ctx, TimeRangeDay, nil)
		require.NoError(t, err)
		require.Len(t, stats, 1)

		assert.Equal(t, locIDs[0], stats[0].Location.ID)
		assert.Equal(t, int64(1), stats[0].MentionCount)
		assert.InDelta(t, 0.8, stats[0].AvgSentiment, 1e-9)
	})

	t.Run("week drops locations with only older mentions", func(t *testing.T) {
		stats, err := store.Heatmap(ctx, TimeRangeWeek, nil)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, locIDs[0], stats[0].Location.ID)
		assert.Equal(t, int64(2), stats[0].MentionCount)
	})

	t.Run("bounding box filters by coordinates", func(t *testing.T) {
		// Oahu only; excludes Mama's Fish House on Maui.
		oahu := &Bounds{MinLat: 21.2, MaxLat: 21.8, MinLng: -158.3, MaxLng: -157.6}
		stats, err := store.Heatmap(ctx, TimeRangeAll, oahu)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Nil(t, byID(stats, locIDs[2]))
	})
}

func TestSearchLocations(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	store := newTestStore(t)
	locIDs := seedStore(t, store, now)
	ctx := context.Background()

	t.Run("matches name case-insensitively", func(t *testing.T) {
		stats, err := store.SearchLocations(ctx, "BEACH", TimeRangeAll, 20)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "Waikiki Beach", stats[0].Name)
	})

	t.Run("matches city and place type", func(t *testing.T) {
		stats, err := store.SearchLocations(ctx, "honolulu", TimeRangeAll, 20)
		require.NoError(t, err)
		assert.Len(t, stats, 2)

		stats, err = store.SearchLocations(ctx, "restaurant", TimeRangeAll, 20)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "Mama's Fish House", stats[0].Name)
	})

	t.Run("orders by mention count descending", func(t *testing.T) {
		stats, err := store.SearchLocations(ctx, "hi", TimeRangeAll, 20)
		require.NoError(t, err)
		require.NotEmpty(t, stats)
		assert.Equal(t, locIDs[0], stats[0].Location.ID)
		for i := 1; i < len(stats); i++ {
			assert.GreaterOrEqual(t, stats[i-1].MentionCount, stats[i].MentionCount)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		stats, err := store.SearchLocations(ctx, "hi", TimeRangeAll, 1)
		require.NoError(t, err)
		assert.Len(t, stats, 1)
	})

	t.Run("no matches yields empty result", func(t *testing.T) {
		stats, err := store.SearchLocations(ctx, "zzzz-nowhere", TimeRangeAll, 20)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestLocationDetail(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	store := newTestStore(t)
	locIDs := seedStore(t, store, now)
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := store.LocationDetail(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("aggregates and recent mentions", func(t *testing.T) {
		stats, recent, err := store.LocationDetail(ctx, locIDs[0])
		require.NoError(t, err)

		assert.Equal(t, "Waikiki Beach", stats.Name)
		assert.Equal(t, int64(2), stats.MentionCount)
		assert.InDelta(t, 0.2, stats.AvgSentiment, 1e-9)

		require.Len(t, recent, 2)
		// Most recent first, joined to its post.
		assert.InDelta(t, 0.8, recent[0].SentimentScore, 1e-9)
		assert.Equal(t, "t3_p2", recent[0].Post.ExternalID)
		assert.Equal(t, "t3_p1", recent[1].Post.ExternalID)
	})

	t.Run("recent mentions capped at 10", func(t *testing.T) {
		batch, err := store.Begin(ctx)
		require.NoError(t, err)

		post := &domain.Post{ExternalID: "t3_many", Channel: "Hawaii", PostedAt: now, ScrapedAt: now}
		require.NoError(t, batch.CreatePost(ctx, post))
		for i := 0; i < 15; i++ {
			m := &domain.Mention{LocationID: locIDs[1], PostID: post.ID, CreatedAt: now.Add(time.Duration(i) * time.Minute)}
			require.NoError(t, batch.CreateMention(ctx, m))
		}
		require.NoError(t, batch.Commit())

		_, recent, err := store.LocationDetail(ctx, locIDs[1])
		require.NoError(t, err)
		assert.Len(t, recent, 10)
	})

	t.Run("zero mentions", func(t *testing.T) {
		stats, recent, err := store.LocationDetail(ctx, locIDs[2])
		require.NoError(t, err)
		assert.Zero(t, stats.MentionCount)
		assert.Empty(t, recent)
	})
}
