package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserHashesPassword(t *testing.T) {
	user, err := NewUser("test@example.com", "Test User", "plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, "plaintext", user.Password)
	assert.True(t, user.ValidatePassword("plaintext"))
	assert.False(t, user.ValidatePassword("wrong"))
}

func TestPasswordNeverInJSON(t *testing.T) {
	user, err := NewUser("test@example.com", "Test User", "plaintext")
	require.NoError(t, err)

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), user.Password)
}

func TestHasAllowedArea(t *testing.T) {
	lat, lon := 37.7749, -122.4194

	user := &User{}
	assert.False(t, user.HasAllowedArea())

	user.AllowedLatitude = &lat
	assert.False(t, user.HasAllowedArea())

	user.AllowedLongitude = &lon
	assert.True(t, user.HasAllowedArea())
}

func TestPublicProjection(t *testing.T) {
	lat, lon, radius := 37.7749, -122.4194, 100.0
	user := &User{
		ID:               "id-1",
		Email:            "test@example.com",
		Name:             "Test User",
		Password:         "digest",
		AllowedLatitude:  &lat,
		AllowedLongitude: &lon,
		AllowedRadius:    &radius,
	}

	pub := user.Public()
	assert.Equal(t, user.ID, pub.ID)
	assert.Equal(t, user.Email, pub.Email)
	assert.Equal(t, &lat, pub.AllowedLatitude)

	data, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "digest")
}
