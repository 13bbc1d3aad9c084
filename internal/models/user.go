package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account with an optional allowed area. If the area
// center is set, AllowedRadius holds the enforcement radius in meters.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Password         string    `json:"-"` // bcrypt digest, never exposed in JSON
	AllowedLatitude  *float64  `json:"allowedLatitude,omitempty"`
	AllowedLongitude *float64  `json:"allowedLongitude,omitempty"`
	AllowedRadius    *float64  `json:"allowedRadius,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUser creates a user with a hashed password. The allowed area, if any,
// is set once at signup and never mutated afterwards.
func NewUser(email, name, password string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		Email:     email,
		Name:      name,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidatePassword checks a candidate password against the stored digest.
func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// HasAllowedArea reports whether a geofence is configured for the user.
// Both center coordinates must be present; the radius defaults at signup.
func (u *User) HasAllowedArea() bool {
	return u.AllowedLatitude != nil && u.AllowedLongitude != nil
}

// Public returns the fields safe to hand back to clients.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		AllowedLatitude:  u.AllowedLatitude,
		AllowedLongitude: u.AllowedLongitude,
		AllowedRadius:    u.AllowedRadius,
	}
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	Name             string   `json:"name"`
	AllowedLatitude  *float64 `json:"allowedLatitude,omitempty"`
	AllowedLongitude *float64 `json:"allowedLongitude,omitempty"`
	AllowedRadius    *float64 `json:"allowedRadius,omitempty"`
}
