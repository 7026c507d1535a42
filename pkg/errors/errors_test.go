package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_Kinds(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewDB("database.GetSpotsByCity", "query failed", fmt.Errorf("timeout")))

	assert.True(t, Is(wrapped, ErrDB))
	assert.False(t, Is(wrapped, ErrValidation))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.True(t, Is(NewNotFound("op", "spot", "42"), ErrNotFound))
	assert.True(t, Is(NewBiz("spots.Nominate", "duplicate", nil), ErrBiz))
	assert.True(t, Is(NewExternal("geocode", "google", "down", nil), ErrExternal))
}

func TestValidationError_FieldsInMessage(t *testing.T) {
	err := NewFieldValidation("validation.ValidateSpotSubmission", map[string]string{
		"name":     "name is required",
		"category": "unknown category",
	})

	assert.Equal(t,
		"validation: validation.ValidateSpotSubmission: invalid submission (category: unknown category; name: name is required)",
		err.Error())
	assert.Equal(t, "name is required", FieldsOf(fmt.Errorf("wrap: %w", err))["name"])
	assert.Nil(t, FieldsOf(NewDB("op", "msg", nil)))
}

func TestExternalAPIError_DefaultSystem(t *testing.T) {
	err := NewExternal("geocode.Geocode", "", "no results", nil)
	assert.Equal(t, "external: geocode.Geocode: no results", err.Error())
}
