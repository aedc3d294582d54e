package geo

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"
)

var ErrNoResults = errors.New("no geocoding results")

type GoogleMapsGeocoder struct {
	client   *maps.Client
	language string
	region   string
}

func NewGoogleMapsGeocoder(apiKey, language, region string) (*GoogleMapsGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsGeocoder{
		client:   client,
		language: language,
		region:   region,
	}, nil
}

func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	req := &maps.GeocodingRequest{
		Address:  address,
		Language: g.language,
		Region:   g.region,
	}

	resp, err := g.client.Geocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}
	return firstResult(resp)
}

func (g *GoogleMapsGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: g.language,
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}
	return firstResult(resp)
}

func firstResult(resp []maps.GeocodingResult) (*Result, error) {
	if len(resp) == 0 {
		return nil, ErrNoResults
	}
	r := resp[0]
	out := &Result{
		FormattedAddress: r.FormattedAddress,
		Latitude:         r.Geometry.Location.Lat,
		Longitude:        r.Geometry.Location.Lng,
	}
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "locality":
				out.City = c.LongName
			case "administrative_area_level_1":
				out.State = c.LongName
			}
		}
	}
	// Some regions only report the municipality at level 2.
	if out.City == "" {
		for _, c := range r.AddressComponents {
			for _, t := range c.Types {
				if t == "administrative_area_level_2" {
					out.City = c.LongName
				}
			}
		}
	}
	return out, nil
}
