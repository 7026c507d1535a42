package validation

import (
	"math"
	"strings"
	"testing"

	"builder-maps/internal/models"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/geo"
)

func validSubmission() models.SpotSubmission {
	return models.SpotSubmission{
		Name:        "Capital Factory",
		CityID:      "austin",
		Category:    "coworking",
		Coordinates: &geo.Coordinate{Lng: -97.7404, Lat: 30.2703},
		Website:     "https://capitalfactory.com",
		SocialLinks: []string{"https://twitter.com/capfactory"},
	}
}

func TestValidateSpotSubmission_Valid(t *testing.T) {
	if errors := ValidateSpotSubmission(validSubmission()); len(errors) != 0 {
		t.Fatalf("expected no errors, got %v", errors)
	}
	if err := CheckSpotSubmission(validSubmission()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestValidateSpotSubmission_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *models.SpotSubmission)
		field  string
	}{
		{"missing name", func(s *models.SpotSubmission) { s.Name = "  " }, "name"},
		{"short name", func(s *models.SpotSubmission) { s.Name = "A" }, "name"},
		{"long name", func(s *models.SpotSubmission) { s.Name = strings.Repeat("a", 201) }, "name"},
		{"symbol-only name", func(s *models.SpotSubmission) { s.Name = "!!! ???" }, "name"},
		{"missing city", func(s *models.SpotSubmission) { s.CityID = "" }, "cityId"},
		{"city not slug", func(s *models.SpotSubmission) { s.CityID = "New York" }, "cityId"},
		{"bad category", func(s *models.SpotSubmission) { s.Category = "restaurant" }, "category"},
		{"missing category", func(s *models.SpotSubmission) { s.Category = "" }, "category"},
		{"lng out of range", func(s *models.SpotSubmission) { s.Coordinates = &geo.Coordinate{Lng: 181, Lat: 0} }, "coordinates"},
		{"lat out of range", func(s *models.SpotSubmission) { s.Coordinates = &geo.Coordinate{Lng: 0, Lat: -91} }, "coordinates"},
		{"lat NaN", func(s *models.SpotSubmission) { s.Coordinates = &geo.Coordinate{Lng: 0, Lat: math.NaN()} }, "coordinates"},
		{"no location at all", func(s *models.SpotSubmission) { s.Coordinates = nil }, "coordinates"},
		{"short address", func(s *models.SpotSubmission) { s.Address = "abc" }, "address"},
		{"long description", func(s *models.SpotSubmission) { s.Description = strings.Repeat("x", 2001) }, "description"},
		{"bad website", func(s *models.SpotSubmission) { s.Website = "capitalfactory" }, "website"},
		{"ftp website", func(s *models.SpotSubmission) { s.Website = "ftp://capitalfactory.com" }, "website"},
		{"bad social link", func(s *models.SpotSubmission) { s.SocialLinks = []string{"https://x.com/a", "not a url"} }, "socialLinks"},
		{"too many links", func(s *models.SpotSubmission) { s.SocialLinks = make([]string, MaxSocialLinks+1) }, "socialLinks"},
		{"long submitter", func(s *models.SpotSubmission) { s.SubmittedBy = strings.Repeat("u", 5000) }, "submittedBy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)
			errors := ValidateSpotSubmission(s)
			if _, ok := errors[tt.field]; !ok {
				t.Fatalf("expected error for %q, got %v", tt.field, errors)
			}
			if len(errors) != 1 {
				t.Fatalf("expected only %q to fail, got %v", tt.field, errors)
			}
		})
	}
}

func TestValidateSpotSubmission_AddressWithoutCoordinates(t *testing.T) {
	s := validSubmission()
	s.Coordinates = nil
	s.Address = "701 Brazos St, Austin, TX"
	if errors := ValidateSpotSubmission(s); len(errors) != 0 {
		t.Fatalf("address should stand in for coordinates, got %v", errors)
	}
}

func TestCheckSpotSubmission_ReturnsValidationError(t *testing.T) {
	s := validSubmission()
	s.Name = ""
	s.Category = "bar"
	err := CheckSpotSubmission(s)
	if !errs.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := errs.FieldsOf(err)
	if fields["name"] == "" || fields["category"] == "" {
		t.Fatalf("missing field messages: %v", fields)
	}
}

func TestValidateCoordinates_Bounds(t *testing.T) {
	for _, c := range []geo.Coordinate{{Lng: 180, Lat: 90}, {Lng: -180, Lat: -90}, {}} {
		if err := ValidateCoordinates(c); err != nil {
			t.Errorf("ValidateCoordinates(%v) = %v, want nil", c, err)
		}
	}
}

func TestValidateSpotSubmission_LengthLimitsAreInclusive(t *testing.T) {
	s := validSubmission()
	s.Name = strings.Repeat("a", 200)
	s.Description = strings.Repeat("d", 2000)
	s.SubmittedBy = strings.Repeat("é", MaxSubmittedByLen)
	s.Address = strings.Repeat("ü", 500)
	if errors := ValidateSpotSubmission(s); len(errors) != 0 {
		t.Fatalf("values at the limit should pass, got %v", errors)
	}

	s.Name = strings.Repeat("a", 201)
	msg := ValidateSpotSubmission(s)["name"]
	if msg != "name must be at most 200 characters" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestValidateName_NonLatin(t *testing.T) {
	for _, name := range []string{"東京", "渋谷カフェ", "Коворкинг", "No. 9"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
	if err := ValidateName("¿?"); err == nil {
		t.Error("ValidateName should reject a name without letters or digits")
	}
}
