package config

import (
	"fmt"
	"math"
	"strings"

	errs "builder-maps/pkg/errors"
)

// Validate checks ranges and required values. Problems are reported together
// as one ValidationError keyed by env var name.
func (c *Config) Validate() error {
	fields := make(map[string]string)

	if c.DatabaseURL == "" {
		fields["DATABASE_URL"] = "is required"
	}
	if c.Port == "" {
		fields["PORT"] = "is required"
	}
	if math.IsNaN(c.DuplicateNameThreshold) || c.DuplicateNameThreshold <= 0 || c.DuplicateNameThreshold > 1 {
		fields["DUPLICATE_NAME_THRESHOLD"] = fmt.Sprintf("must be in (0, 1], got %v", c.DuplicateNameThreshold)
	}
	if math.IsNaN(c.DuplicateDistanceMeters) || c.DuplicateDistanceMeters <= 0 {
		fields["DUPLICATE_DISTANCE_METERS"] = fmt.Sprintf("must be positive, got %v", c.DuplicateDistanceMeters)
	}
	if c.DBMaxOpenConns < 1 {
		fields["DB_MAX_OPEN_CONNS"] = "must be at least 1"
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		fields["DB_MAX_IDLE_CONNS"] = "cannot exceed DB_MAX_OPEN_CONNS"
	}
	if c.DBReadTimeout <= 0 || c.DBWriteTimeout <= 0 {
		fields["DB_READ_TIMEOUT"] = "read and write timeouts must be positive durations"
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		fields["LOG_FORMAT"] = "must be json or text"
	}
	if c.Env == "production" && c.GoogleMapsAPIKey == "" {
		fields["GOOGLE_MAPS_API_KEY"] = "is required in production"
	}

	if len(fields) > 0 {
		return &errs.ValidationError{Op: "config.Validate", Msg: "configuration validation failed", Fields: fields}
	}
	return nil
}
