// Package dedupe flags likely duplicates of a newly nominated spot among the
// existing spots of the same city, using name similarity and distance.
//
// The package is pure: no I/O, no shared state, inputs are never modified.
package dedupe

import (
	"fmt"
	"math"
	"sort"

	"builder-maps/pkg/geo"
	"builder-maps/pkg/textmatch"
)

const (
	DefaultNameThreshold     = 0.7
	DefaultDistanceThreshold = 100.0 // meters

	// SimilarityTieBand: matches whose similarities differ by no more than
	// this are ordered by distance instead of similarity.
	SimilarityTieBand = 0.1
)

// Candidate is an existing spot checked against a new nomination.
type Candidate struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Coordinates geo.Coordinate `json:"coordinates"`
	CityID      string         `json:"cityId"`
}

// Match is a candidate judged to be a plausible duplicate.
type Match struct {
	Candidate      Candidate `json:"spot"`
	NameSimilarity float64   `json:"nameSimilarity"`
	Distance       float64   `json:"distance"` // meters
	Reason         string    `json:"reason"`
}

// Result is the outcome of one duplicate check.
type Result struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Matches     []Match `json:"matches"`
}

// Options tunes the match thresholds. Zero or negative values select the defaults.
type Options struct {
	NameThreshold     float64
	DistanceThreshold float64 // meters
}

func (o Options) withDefaults() Options {
	if o.NameThreshold <= 0 {
		o.NameThreshold = DefaultNameThreshold
	}
	if o.DistanceThreshold <= 0 {
		o.DistanceThreshold = DefaultDistanceThreshold
	}
	return o
}

// CheckForDuplicates compares a proposed spot against existing entries.
// Only entries whose CityID equals cityID are considered. An entry matches when
// its name similarity reaches opts.NameThreshold or it lies within
// opts.DistanceThreshold meters; either condition alone is enough.
func CheckForDuplicates(name string, coords geo.Coordinate, cityID string, existing []Candidate, opts Options) Result {
	opts = opts.withDefaults()

	matches := make([]Match, 0)
	for _, c := range existing {
		if c.CityID != cityID {
			continue
		}

		sim := textmatch.Similarity(name, c.Name)
		dist := geo.DistanceMeters(coords, c.Coordinates)

		nameHit := sim >= opts.NameThreshold
		nearHit := dist <= opts.DistanceThreshold
		if !nameHit && !nearHit {
			continue
		}

		matches = append(matches, Match{
			Candidate:      c,
			NameSimilarity: sim,
			Distance:       dist,
			Reason:         reason(sim, dist, nameHit, nearHit),
		})
	}

	SortMatches(matches)

	return Result{IsDuplicate: len(matches) > 0, Matches: matches}
}

// SortMatches orders matches by descending similarity, falling back to
// ascending distance when two similarities are within SimilarityTieBand.
// The sort is stable so equal entries keep their input order.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if math.Abs(a.NameSimilarity-b.NameSimilarity) > SimilarityTieBand {
			return a.NameSimilarity > b.NameSimilarity
		}
		return a.Distance < b.Distance
	})
}

func reason(sim, dist float64, nameHit, nearHit bool) string {
	switch {
	case nameHit && nearHit:
		return fmt.Sprintf("Name is %d%% similar, and only %s away", percent(sim), FormatDistance(dist))
	case nameHit:
		return fmt.Sprintf("Name is %d%% similar", percent(sim))
	default:
		return fmt.Sprintf("Only %s away", FormatDistance(dist))
	}
}

func percent(sim float64) int {
	return int(math.Round(sim * 100))
}

// FormatDistance renders meters as "850m" below one kilometer and "1.2km" above.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1fkm", meters/1000)
	}
	return fmt.Sprintf("%dm", int(math.Round(meters)))
}
