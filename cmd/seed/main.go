// Command seed loads demo content into the database. The generated posts
// reference real gazetteer places and run through the actual extraction,
// scoring, and persistence pipeline, so seeded rows match what ingestion
// would produce.
//
// Usage:
//
//	go run ./cmd/seed -db mentionmap.db -posts 150
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/kahakai/mentionmap/internal/adapter/sqlite"
	"github.com/kahakai/mentionmap/internal/domain"
	"github.com/kahakai/mentionmap/internal/observability"
	"github.com/kahakai/mentionmap/internal/pipeline"
)

var places = []string{
	"Waikiki Beach", "Lanikai Beach", "Hanauma Bay", "Sunset Beach",
	"Waimea Bay", "Diamond Head", "Manoa Falls", "Koko Head Trail",
	"Pearl Harbor", "Haleakala National Park", "Road to Hana",
	"Rainbow Drive-In", "Leonard's Bakery", "Matsumoto Shave Ice",
	"Duke's Waikiki", "Mama's Fish House", "Poipu Beach", "Waimea Canyon",
	"Na Pali Coast", "Akaka Falls",
}

var positiveTemplates = []string{
	"Just had the best experience at %s! Highly recommend it to anyone visiting.",
	"%s is absolutely amazing. Can't believe we almost skipped it!",
	"%s was the highlight of our entire trip. 10/10 would recommend.",
	"Finally tried %s after all the hype. It lives up to it!",
	"Pro tip: %s is way less crowded in the morning. Go early!",
}

var neutralTemplates = []string{
	"Visited %s today. It was okay, pretty standard for the area.",
	"Stopped by %s. Nothing special but worth checking off the list.",
	"Has anyone been to %s recently? Wondering if it's worth the drive.",
	"We checked out %s. Good for tourists I guess.",
}

var negativeTemplates = []string{
	"Disappointed by %s. Way too crowded and overpriced.",
	"%s was underwhelming. Save your time and money.",
	"The line at %s was insane. Not worth the 2 hour wait.",
	"Unpopular opinion but %s is overrated. Fight me.",
}

var channels = []string{"Hawaii", "Honolulu", "Maui", "BigIsland", "Oahu", "Kauai", "VisitingHawaii"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "mentionmap.db", "database path")
	posts := flag.Int("posts", 150, "number of demo posts to generate")
	seed := flag.Int64("seed", 42, "random seed for reproducible fixtures")
	flag.Parse()

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	counts, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if counts.Posts > 0 {
		log.Printf("database already has %d posts, skipping seed", counts.Posts)
		return nil
	}

	rng := rand.New(rand.NewSource(*seed))
	units := generateUnits(rng, *posts)

	logger := observability.NewLogger("info", "text")
	p := pipeline.New(staticSource{units}, pipeline.NewStore(store), nil, nil,
		logger, observability.NewMetrics(), pipeline.Options{
			Channels:   []string{"seed"},
			FetchLimit: len(units),
		})

	stats, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("seed run: %w", err)
	}

	log.Printf("seeded %d posts, %d locations, %d mentions",
		stats.PostsCreated, stats.LocationsCreated, stats.MentionsCreated)
	return nil
}

// generateUnits builds demo submissions with a 60/25/15 positive, neutral,
// negative split, spread over the last 30 days.
func generateUnits(rng *rand.Rand, n int) []domain.ContentUnit {
	now := time.Now().UTC()
	units := make([]domain.ContentUnit, 0, n)

	for i := 0; i < n; i++ {
		place := places[rng.Intn(len(places))]

		var tmpl string
		switch roll := rng.Float64(); {
		case roll < 0.60:
			tmpl = positiveTemplates[rng.Intn(len(positiveTemplates))]
		case roll < 0.85:
			tmpl = neutralTemplates[rng.Intn(len(neutralTemplates))]
		default:
			tmpl = negativeTemplates[rng.Intn(len(negativeTemplates))]
		}

		units = append(units, domain.ContentUnit{
			ExternalID: fmt.Sprintf("t3_seed%04d", i),
			Title:      fmt.Sprintf("Trip notes day %d", i%14+1),
			Body:       fmt.Sprintf(tmpl, place),
			Channel:    channels[rng.Intn(len(channels))],
			PostedAt:   now.Add(-time.Duration(rng.Intn(30*24*60)) * time.Minute),
		})
	}
	return units
}

// staticSource serves the pre-generated units for any channel.
type staticSource struct {
	units []domain.ContentUnit
}

func (s staticSource) FetchChannel(context.Context, string, int) ([]domain.ContentUnit, error) {
	return s.units, nil
}
