// Package geo holds coordinate types and great-circle distance helpers.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"googlemaps.github.io/maps"

	"builder-maps/pkg/textmatch"
)

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371000.0

// Coordinate is a longitude/latitude pair in decimal degrees.
// On the wire it is the array [lng, lat].
type Coordinate struct {
	Lng float64
	Lat float64
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lng, c.Lat})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates must be [longitude, latitude]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates must have exactly 2 elements, got %d", len(pair))
	}
	c.Lng, c.Lat = pair[0], pair[1]
	return nil
}

// Valid reports whether both values are finite and within geodesic range.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0) &&
		!math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		c.Lng >= -180 && c.Lng <= 180 &&
		c.Lat >= -90 && c.Lat <= 90
}

func (c Coordinate) String() string {
	return fmt.Sprintf("[%g, %g]", c.Lng, c.Lat)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceMeters returns the Haversine distance between a and b.
// Inputs outside the valid range give meaningless but finite results; NaN propagates.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a place name to the city id form: diacritics folded,
// lowercase, hyphen separated.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(textmatch.Fold(name)))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CitySlug derives a city id from Google address components. It prefers the
// locality and falls back to the broader administrative areas when the
// result has no locality (rural addresses, some non-US formats).
func CitySlug(components []maps.AddressComponent) string {
	preference := []string{
		"locality",
		"postal_town",
		"administrative_area_level_3",
		"administrative_area_level_2",
		"administrative_area_level_1",
	}

	found := make(map[string]string)
	for _, component := range components {
		for _, t := range component.Types {
			if _, ok := found[t]; !ok {
				found[t] = component.LongName
			}
		}
	}

	for _, t := range preference {
		if name, ok := found[t]; ok && name != "" {
			return Slug(name)
		}
	}
	return ""
}
