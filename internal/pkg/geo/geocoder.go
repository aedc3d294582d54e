// Package geo resolves coordinates and free-text addresses for the location step.
package geo

import (
	"context"
	"math"
)

// Result is a resolved address.
type Result struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
}

// Geocoder resolves addresses in both directions.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error)
}

// RoundCoordinate rounds a coordinate to 6 decimal places, the precision the
// backend stores.
func RoundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
