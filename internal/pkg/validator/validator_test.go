package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidWallTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "14:05", "23:59"}
	for _, s := range valid {
		assert.True(t, IsValidWallTime(s), s)
	}

	invalid := []string{"24:00", "9:30", "14:60", "14:5", "noon", "", "14:05:00"}
	for _, s := range invalid {
		assert.False(t, IsValidWallTime(s), s)
	}
}

func TestParseInstant(t *testing.T) {
	got, ok := ParseInstant("2025-03-10T14:30:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC), got)

	got, ok = ParseInstant("2025-03-10")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseInstant("10/03/2025")
	assert.False(t, ok)
}

func TestValidationErrorsToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "must be a valid email address"},
		{Field: "password", Message: "too short"},
	}

	m := errs.ToMap()
	assert.Equal(t, "must be a valid email address", m["email"])
	assert.Equal(t, "too short", m["password"])
	assert.Contains(t, errs.Error(), "email:")
}
