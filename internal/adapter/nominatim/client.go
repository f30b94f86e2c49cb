// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim API. Lookups are rate limited to honor the public instance's
// one-request-per-second usage policy, and failures degrade gracefully so
// an ingestion run never aborts because geocoding is down.
package nominatim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/kahakai/mentionmap/internal/domain"
	"github.com/kahakai/mentionmap/internal/observability"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client implements domain.Geocoder using the Nominatim API.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Options configures a Client. Zero values fall back to the public Nominatim
// endpoint with one lookup per second.
type Options struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Timeout     time.Duration
}

// NewClient creates a Nominatim geocoding client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	minInterval := opts.MinInterval
	if minInterval <= 0 {
		minInterval = time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	return &Client{
		http: httpClient,
		// Burst of 1 enforces the minimum spacing between consecutive lookups.
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// searchResult is one Nominatim search hit. Coordinates arrive as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// reverseResult is a Nominatim reverse lookup response.
type reverseResult struct {
	Address map[string]string `json:"address"`
}

// Geocode resolves a place name to coordinates. The name is qualified with
// city and state when present. Upstream failures and unknown places both
// return (nil, nil); only context cancellation is surfaced as an error.
func (c *Client) Geocode(ctx context.Context, name, city, state string) (*domain.Coordinates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parts := []string{name}
	if city != "" {
		parts = append(parts, city)
	}
	if state != "" {
		parts = append(parts, state)
	}
	query := strings.Join(parts, ", ")

	start := time.Now()
	var results []searchResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "jsonv2",
			"limit":  "1",
		}).
		SetResult(&results).
		Get("/search")
	c.metrics.GeocodeAPIDuration.WithLabelValues("forward").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		c.logger.Warn("geocode lookup failed", "query", query, "error", err)
		return nil, nil
	}
	if resp.IsError() {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		c.logger.Warn("geocode lookup rejected", "query", query, "status", resp.StatusCode())
		return nil, nil
	}
	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
		return nil, nil
	}

	coords, err := parseCoordinates(results[0].Lat, results[0].Lon)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		c.logger.Warn("geocode returned malformed coordinates", "query", query, "error", err)
		return nil, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("forward", "success").Inc()
	return coords, nil
}

// ReverseGeocode resolves coordinates to address components. Failures return
// (nil, nil) like forward lookups.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (map[string]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var result reverseResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    strconv.FormatFloat(lat, 'f', 6, 64),
			"lon":    strconv.FormatFloat(lng, 'f', 6, 64),
			"format": "jsonv2",
		}).
		SetResult(&result).
		Get("/reverse")
	c.metrics.GeocodeAPIDuration.WithLabelValues("reverse").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		c.logger.Warn("reverse geocode failed", "lat", lat, "lng", lng, "error", err)
		return nil, nil
	}
	if resp.IsError() {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		c.logger.Warn("reverse geocode rejected", "lat", lat, "lng", lng, "status", resp.StatusCode())
		return nil, nil
	}
	if len(result.Address) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		return nil, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	return result.Address, nil
}

func parseCoordinates(latStr, lonStr string) (*domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", latStr, err)
	}
	lng, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", lonStr, err)
	}
	return &domain.Coordinates{Lat: lat, Lng: lng}, nil
}
