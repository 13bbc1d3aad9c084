package store

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GeoGate-io/geogate/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Store is an explicit storage handle around a SQL database. Every component
// that needs persistence receives one at construction; there is no package
// global, so tests substitute an isolated instance per case.
type Store struct {
	db     *sql.DB
	driver string
}

// New creates a store on an open database connection. driver is "sqlite"
// or "postgres" and selects the placeholder style.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// bind rewrites ? placeholders to $n for the postgres driver.
func (s *Store) bind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateUser persists a new user. The caller has already hashed the password
// and filled the allowed area, if any.
func (s *Store) CreateUser(user *models.User) (*models.User, error) {
	if _, err := s.GetUserByEmail(user.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user.ID = uuid.NewString()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.Exec(
		s.bind(`INSERT INTO users (id, email, name, password, allowed_latitude, allowed_longitude, allowed_radius, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID, user.Email, user.Name, user.Password,
		user.AllowedLatitude, user.AllowedLongitude, user.AllowedRadius,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		// A concurrent signup can still hit the unique index.
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(
		s.bind(`SELECT id, email, name, password, allowed_latitude, allowed_longitude, allowed_radius, created_at, updated_at
			FROM users WHERE email = ?`),
		email,
	))
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(
		s.bind(`SELECT id, email, name, password, allowed_latitude, allowed_longitude, allowed_radius, created_at, updated_at
			FROM users WHERE id = ?`),
		id,
	))
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Password,
		&user.AllowedLatitude, &user.AllowedLongitude, &user.AllowedRadius,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSession inserts a session row. Multiple live sessions per user are
// allowed; there is no dedup.
func (s *Store) CreateSession(userID, token string, coord *models.Coordinate, ttl time.Duration) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if coord != nil {
		session.Latitude = &coord.Latitude
		session.Longitude = &coord.Longitude
	}

	_, err := s.db.Exec(
		s.bind(`INSERT INTO sessions (id, user_id, token, latitude, longitude, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
		session.ID, session.UserID, session.Token,
		session.Latitude, session.Longitude,
		session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// GetSessionByToken retrieves a live session. A row whose expiry has passed
// is deleted on the spot and reported as expired; readers never see it.
func (s *Store) GetSessionByToken(token string) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.QueryRow(
		s.bind(`SELECT id, user_id, token, latitude, longitude, created_at, expires_at
			FROM sessions WHERE token = ?`),
		token,
	).Scan(
		&session.ID, &session.UserID, &session.Token,
		&session.Latitude, &session.Longitude,
		&session.CreatedAt, &session.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if session.Expired() {
		if err := s.DeleteSession(token); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	return session, nil
}

// DeleteSession removes one session. Deleting an absent row is not an error.
func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec(s.bind("DELETE FROM sessions WHERE token = ?"), token)
	return err
}

// DeleteSessionsForUser removes every session of a user in one statement and
// returns how many rows went. Used by the geofence enforcer on violation.
func (s *Store) DeleteSessionsForUser(userID string) (int64, error) {
	result, err := s.db.Exec(s.bind("DELETE FROM sessions WHERE user_id = ?"), userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpiredSessions sweeps rows past their expiry.
func (s *Store) DeleteExpiredSessions() error {
	_, err := s.db.Exec(s.bind("DELETE FROM sessions WHERE expires_at < ?"), time.Now())
	return err
}

// CountSessionsForUser returns the number of live session rows for a user.
func (s *Store) CountSessionsForUser(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		s.bind("SELECT COUNT(*) FROM sessions WHERE user_id = ?"),
		userID,
	).Scan(&count)
	return count, err
}
