package models

import (
	"strconv"
	"time"

	"builder-maps/internal/dedupe"
	"builder-maps/internal/sociallink"
	"builder-maps/pkg/geo"
)

// SpotStatus is the moderation state of a spot.
type SpotStatus string

const (
	StatusPending  SpotStatus = "pending"
	StatusApproved SpotStatus = "approved"
	StatusRejected SpotStatus = "rejected"
)

// Category is the kind of venue.
type Category string

const (
	CategoryCoworking   Category = "coworking"
	CategoryCafe        Category = "cafe"
	CategoryHackerHouse Category = "hacker_house"
	CategoryCommunity   Category = "community"
	CategoryOther       Category = "other"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{CategoryCoworking, CategoryCafe, CategoryHackerHouse, CategoryCommunity, CategoryOther}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Spot is a directory entry.
type Spot struct {
	ID          int64             `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	CityID      string            `json:"cityId" db:"city_id"`
	Category    Category          `json:"category" db:"category"`
	Coordinates geo.Coordinate    `json:"coordinates"`
	Address     *string           `json:"address,omitempty" db:"address"`
	Description *string           `json:"description,omitempty" db:"description"`
	Website     *string           `json:"website,omitempty" db:"website"`
	SocialLinks []sociallink.Link `json:"socialLinks,omitempty" db:"social_links"`
	Status      SpotStatus        `json:"status" db:"status"`
	SubmittedBy *string           `json:"submittedBy,omitempty" db:"submitted_by"`
	Upvotes     int               `json:"upvotes" db:"upvotes"`

	// Screening is the automated pre-screen outcome, if one ran.
	Screening *ScreeningResult `json:"screening,omitempty" db:"screening"`

	ReviewedBy *int       `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
	ReviewNote *string    `json:"reviewNote,omitempty" db:"review_note"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// Candidate converts the spot into the shape used by duplicate detection.
func (s Spot) Candidate() dedupe.Candidate {
	return dedupe.Candidate{
		ID:          strconv.FormatInt(s.ID, 10),
		Name:        s.Name,
		Coordinates: s.Coordinates,
		CityID:      s.CityID,
	}
}

// Candidates converts a slice of spots.
func Candidates(spots []Spot) []dedupe.Candidate {
	out := make([]dedupe.Candidate, 0, len(spots))
	for _, s := range spots {
		out = append(out, s.Candidate())
	}
	return out
}

// SpotSubmission is the body of a nomination or duplicate check.
// Coordinates may be omitted when Address is given; the service geocodes it.
type SpotSubmission struct {
	Name        string          `json:"name"`
	CityID      string          `json:"cityId"`
	Category    string          `json:"category"`
	Coordinates *geo.Coordinate `json:"coordinates,omitempty"`
	Address     string          `json:"address,omitempty"`
	Description string          `json:"description,omitempty"`
	Website     string          `json:"website,omitempty"`
	SocialLinks []string        `json:"socialLinks,omitempty"`
	SubmittedBy string          `json:"submittedBy,omitempty"`
}

// ScreeningVerdict is the automated pre-screen classification.
type ScreeningVerdict string

const (
	VerdictOK       ScreeningVerdict = "ok"
	VerdictSpam     ScreeningVerdict = "spam"
	VerdictOffTopic ScreeningVerdict = "off_topic"
)

// ScreeningResult is stored alongside a pending spot for moderators.
type ScreeningResult struct {
	Verdict           ScreeningVerdict `json:"verdict"`
	SuggestedCategory Category         `json:"suggested_category,omitempty"`
	Reason            string           `json:"reason,omitempty"`
	Model             string           `json:"model,omitempty"`
}

// CityStats summarises spots per status for one city.
type CityStats struct {
	CityID   string `json:"cityId"`
	Pending  int    `json:"pending"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
	Total    int    `json:"total"`
}
