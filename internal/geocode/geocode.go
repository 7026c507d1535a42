// Package geocode resolves free-text addresses to coordinates and a city id
// using the Google Maps Geocoding API.
package geocode

import (
	"context"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/geo"
)

// Place is the geocoder's answer for one address.
type Place struct {
	Coordinates      geo.Coordinate `json:"coordinates"`
	FormattedAddress string         `json:"formattedAddress"`
	CityID           string         `json:"cityId"`
	PlaceID          string         `json:"placeId"`
}

// Geocoder resolves an address to a Place.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Place, error)
}

// geocodeAPI is the subset of *maps.Client used here.
type geocodeAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleGeocoder implements Geocoder on the Google Maps client.
type GoogleGeocoder struct {
	client  geocodeAPI
	timeout time.Duration
}

// NewGoogleGeocoder builds a geocoder for apiKey.
func NewGoogleGeocoder(apiKey string, timeout time.Duration) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, errs.NewExternal("geocode.NewGoogleGeocoder", "google", "failed to create maps client", err)
	}
	return newGoogleGeocoder(client, timeout), nil
}

func newGoogleGeocoder(client geocodeAPI, timeout time.Duration) *GoogleGeocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleGeocoder{client: client, timeout: timeout}
}

// Geocode returns the first match for address.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errs.NewValidation("geocode.Geocode", "address is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, errs.NewExternal("geocode.Geocode", "google", "geocoding request failed", err)
	}
	if len(results) == 0 {
		return nil, errs.NewNotFound("geocode.Geocode", "address", address)
	}

	r := results[0]
	return &Place{
		Coordinates:      geo.Coordinate{Lng: r.Geometry.Location.Lng, Lat: r.Geometry.Location.Lat},
		FormattedAddress: r.FormattedAddress,
		CityID:           geo.CitySlug(r.AddressComponents),
		PlaceID:          r.PlaceID,
	}, nil
}
