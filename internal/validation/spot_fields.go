package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"builder-maps/internal/models"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/geo"
)

const (
	MaxSocialLinks    = 10
	MaxSubmittedByLen = 255
)

var (
	// cityIDRegex matches the slug form produced by geo.Slug
	cityIDRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// ValidateName validates spot name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	n := utf8.RuneCountInString(name)
	if n < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if n > 200 {
		return fmt.Errorf("name must be at most 200 characters")
	}
	if strings.IndexFunc(name, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return fmt.Errorf("name must contain a letter or digit")
	}
	return nil
}

// ValidateCityID validates the city slug
func ValidateCityID(city string) error {
	if city == "" {
		return fmt.Errorf("city is required")
	}
	if len(city) > 100 {
		return fmt.Errorf("city must be at most 100 characters")
	}
	if !cityIDRegex.MatchString(city) {
		return fmt.Errorf("city must be a lowercase slug (letters, numbers, hyphens)")
	}
	return nil
}

// ValidateCategory validates spot category
func ValidateCategory(c string) error {
	if c == "" {
		return fmt.Errorf("category is required")
	}
	if !models.Category(c).Valid() {
		return fmt.Errorf("invalid category %q (must be one of coworking, cafe, hacker_house, community, other)", c)
	}
	return nil
}

// ValidateLatitude validates latitude coordinate
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("latitude must be a finite number")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude coordinate
func ValidateLongitude(lng float64) error {
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("longitude must be a finite number")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateCoordinates validates both halves, longitude first.
func ValidateCoordinates(c geo.Coordinate) error {
	if err := ValidateLongitude(c.Lng); err != nil {
		return err
	}
	return ValidateLatitude(c.Lat)
}

// ValidateAddress validates an optional street address
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	if utf8.RuneCountInString(addr) < 5 {
		return fmt.Errorf("address must be at least 5 characters")
	}
	if utf8.RuneCountInString(addr) > 500 {
		return fmt.Errorf("address must be at most 500 characters")
	}
	return nil
}

// ValidateDescription validates spot description
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}
	return nil
}

// ValidateURL validates an optional http(s) link
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if utf8.RuneCountInString(raw) > 500 {
		return fmt.Errorf("url must be at most 500 characters")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be a valid http(s) URL")
	}
	return nil
}

// ValidateSubmittedBy caps the optional submitter handle at the column width.
func ValidateSubmittedBy(by string) error {
	if utf8.RuneCountInString(strings.TrimSpace(by)) > MaxSubmittedByLen {
		return fmt.Errorf("submittedBy must be at most %d characters", MaxSubmittedByLen)
	}
	return nil
}

// ValidateSocialLinks validates the list of social links
func ValidateSocialLinks(links []string) error {
	if len(links) > MaxSocialLinks {
		return fmt.Errorf("too many social links (max %d)", MaxSocialLinks)
	}
	for i, l := range links {
		if err := ValidateURL(l); err != nil {
			return fmt.Errorf("link %d: %v", i+1, err)
		}
	}
	return nil
}

// ValidateSpotSubmission checks a nomination before duplicate detection runs.
// It returns field name -> message for every invalid field; an empty map
// means the submission is acceptable. Field names match the JSON body.
func ValidateSpotSubmission(s models.SpotSubmission) map[string]string {
	errors := make(map[string]string)

	add := func(field string, err error) {
		if err != nil {
			errors[field] = err.Error()
		}
	}

	add("name", ValidateName(s.Name))
	add("cityId", ValidateCityID(s.CityID))
	add("category", ValidateCategory(s.Category))
	add("address", ValidateAddress(s.Address))
	add("description", ValidateDescription(s.Description))
	add("website", ValidateURL(s.Website))
	add("socialLinks", ValidateSocialLinks(s.SocialLinks))
	add("submittedBy", ValidateSubmittedBy(s.SubmittedBy))

	if s.Coordinates == nil {
		if strings.TrimSpace(s.Address) == "" {
			errors["coordinates"] = "coordinates or address is required"
		}
	} else {
		add("coordinates", ValidateCoordinates(*s.Coordinates))
	}

	return errors
}

// CheckSpotSubmission is ValidateSpotSubmission as an error, nil when valid.
func CheckSpotSubmission(s models.SpotSubmission) error {
	if fields := ValidateSpotSubmission(s); len(fields) > 0 {
		return errs.NewFieldValidation("validation.CheckSpotSubmission", fields)
	}
	return nil
}
