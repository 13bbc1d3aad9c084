package auth

import (
	"errors"
	"log"
	"time"

	"github.com/GeoGate-io/geogate/internal/geo"
	"github.com/GeoGate-io/geogate/internal/models"
	"github.com/GeoGate-io/geogate/internal/store"
)

var (
	// ErrMissingFields covers absent required input on signup and login.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidCredentials deliberately does not say which check failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrLocationRequired is returned when the account has an allowed area
	// but the caller supplied no usable coordinate.
	ErrLocationRequired = errors.New("location is required for this account")
	// ErrOutOfArea is returned when the supplied coordinate falls outside
	// the account's allowed area.
	ErrOutOfArea = errors.New("not in the allowed location for this account")
	// ErrUnauthorized covers every bad-token and dead-session outcome.
	ErrUnauthorized = errors.New("unauthorized")
)

// ViolationRecord describes one geofence breach and the revocation it caused.
type ViolationRecord struct {
	UserID          string    `json:"userId"`
	Email           string    `json:"email"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	DistanceMeters  float64   `json:"distanceMeters"`
	AllowedRadius   float64   `json:"allowedRadius"`
	SessionsRevoked int64     `json:"sessionsRevoked"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// AuditSink receives violation records. Archiving is best-effort; a nil sink
// disables it.
type AuditSink interface {
	ArchiveViolation(record ViolationRecord)
}

// Service implements the credential and geofence checks on top of an
// injected store and token manager.
type Service struct {
	store         *store.Store
	tokens        *TokenManager
	sessionTTL    time.Duration
	defaultRadius float64
	audit         AuditSink
}

// NewService wires the authenticator. sessionTTL bounds every issued
// session; defaultRadius applies when a signup sets a center but no radius.
func NewService(st *store.Store, tokens *TokenManager, sessionTTL time.Duration, defaultRadius float64) *Service {
	return &Service{
		store:         st,
		tokens:        tokens,
		sessionTTL:    sessionTTL,
		defaultRadius: defaultRadius,
	}
}

// SetAuditSink attaches an optional violation archive.
func (s *Service) SetAuditSink(sink AuditSink) {
	s.audit = sink
}

// SignupParams carries the signup request fields. Latitude/Longitude set the
// account's allowed-area center; Radius is optional and defaults.
type SignupParams struct {
	Email     string
	Password  string
	Name      string
	Latitude  *float64
	Longitude *float64
	Radius    *float64
}

// Signup creates an account and issues its first session. No location check
// happens here: the area is being established, not enforced.
func (s *Service) Signup(params SignupParams) (*models.User, string, error) {
	if params.Email == "" || params.Password == "" || params.Name == "" {
		return nil, "", ErrMissingFields
	}

	user, err := models.NewUser(params.Email, params.Name, params.Password)
	if err != nil {
		return nil, "", err
	}

	// A center needs both coordinates; a lone latitude or longitude is
	// treated as no area at all.
	if params.Latitude != nil && params.Longitude != nil {
		user.AllowedLatitude = params.Latitude
		user.AllowedLongitude = params.Longitude
		radius := s.defaultRadius
		if params.Radius != nil && *params.Radius > 0 {
			radius = *params.Radius
		}
		user.AllowedRadius = &radius
	}

	user, err = s.store.CreateUser(user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueSession(user, coordinateFrom(params.Latitude, params.Longitude))
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// LoginParams carries the login request fields.
type LoginParams struct {
	Email     string
	Password  string
	Latitude  *float64
	Longitude *float64
}

// Login runs the credential and geofence checks and issues a session on
// success. Exactly one session row is created per successful call; none on
// rejection.
func (s *Service) Login(params LoginParams) (*models.User, string, error) {
	if params.Email == "" || params.Password == "" {
		return nil, "", ErrMissingFields
	}

	user, err := s.store.GetUserByEmail(params.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.ValidatePassword(params.Password) {
		return nil, "", ErrInvalidCredentials
	}

	coord := coordinateFrom(params.Latitude, params.Longitude)
	if user.HasAllowedArea() {
		// A partial coordinate counts as no coordinate.
		if coord == nil {
			return nil, "", ErrLocationRequired
		}
		if !geo.WithinArea(coord.Latitude, coord.Longitude,
			*user.AllowedLatitude, *user.AllowedLongitude, *user.AllowedRadius) {
			return nil, "", ErrOutOfArea
		}
	}

	token, err := s.issueSession(user, coord)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// VerifyToken checks signature, expiry and the session row, and loads the
// owner. A structurally valid token whose session has been revoked is still
// rejected.
func (s *Service) VerifyToken(token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		log.Printf("[AUTH] token rejected: %v", err)
		return nil, ErrUnauthorized
	}

	session, err := s.store.GetSessionByToken(token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	user, err := s.store.GetUserByID(session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	// The session row is authoritative for identity; the claims only need
	// to agree with it.
	if claims.UserID != user.ID {
		return nil, ErrUnauthorized
	}

	return user, nil
}

// LocationResult is the outcome of a geofence re-validation.
type LocationResult struct {
	Valid      bool
	Restricted bool
	Message    string
}

// ValidateLocation re-checks a live session against a fresh coordinate. On a
// violation every session of the user is revoked; a single failing sample is
// sufficient and there is no grace period.
func (s *Service) ValidateLocation(token string, coord models.Coordinate) (*LocationResult, error) {
	user, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	if !user.HasAllowedArea() {
		return &LocationResult{
			Valid:      true,
			Restricted: false,
			Message:    "No location restriction set for this user",
		}, nil
	}

	distance := geo.DistanceMeters(coord.Latitude, coord.Longitude,
		*user.AllowedLatitude, *user.AllowedLongitude)
	if distance <= *user.AllowedRadius {
		return &LocationResult{
			Valid:      true,
			Restricted: true,
			Message:    "Location is valid",
		}, nil
	}

	// Revoke every session for the account, not just the current one. A
	// single breach forces re-authentication from an allowed location on
	// all devices.
	revoked, err := s.store.DeleteSessionsForUser(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[AUTH] geofence violation for user %s: %.0fm from center (radius %.0fm), revoked %d session(s)",
		user.ID, distance, *user.AllowedRadius, revoked)

	if s.audit != nil {
		s.audit.ArchiveViolation(ViolationRecord{
			UserID:          user.ID,
			Email:           user.Email,
			Latitude:        coord.Latitude,
			Longitude:       coord.Longitude,
			DistanceMeters:  distance,
			AllowedRadius:   *user.AllowedRadius,
			SessionsRevoked: revoked,
			OccurredAt:      time.Now(),
		})
	}

	return &LocationResult{
		Valid:      false,
		Restricted: true,
		Message:    "You have moved outside the allowed area. Please log in again from an allowed location.",
	}, nil
}

// Logout deletes the session row for the presented token. The token itself
// stays structurally valid until it expires, but no reader will accept it.
func (s *Service) Logout(token string) error {
	if _, err := s.tokens.Validate(token); err != nil {
		return ErrUnauthorized
	}
	return s.store.DeleteSession(token)
}

func (s *Service) issueSession(user *models.User, coord *models.Coordinate) (string, error) {
	token, err := s.tokens.Generate(user, s.sessionTTL)
	if err != nil {
		return "", err
	}
	if _, err := s.store.CreateSession(user.ID, token, coord, s.sessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// coordinateFrom returns a coordinate only when both parts are present.
func coordinateFrom(lat, lon *float64) *models.Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinate{Latitude: *lat, Longitude: *lon}
}
