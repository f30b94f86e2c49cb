package domain

import "context"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves place names the gazetteer does not know.
//
// Implementations must degrade gracefully: a lookup timeout or upstream
// failure returns (nil, nil), never an error the caller has to handle, so a
// batch of lookups continues instead of aborting. The only error surfaced is
// context cancellation.
type Geocoder interface {
	// Geocode converts a place name (optionally qualified by city and state)
	// to coordinates. Returns nil when the place cannot be resolved.
	Geocode(ctx context.Context, name, city, state string) (*Coordinates, error)

	// ReverseGeocode converts coordinates to address components keyed by
	// component name (road, city, state, ...). Returns nil when no address
	// is known for the point.
	ReverseGeocode(ctx context.Context, lat, lng float64) (map[string]string, error)
}
