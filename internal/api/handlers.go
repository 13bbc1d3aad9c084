package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/GeoGate-io/geogate/internal/auth"
	"github.com/GeoGate-io/geogate/internal/geo"
	"github.com/GeoGate-io/geogate/internal/models"
	"github.com/GeoGate-io/geogate/internal/store"
)

type SignupRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

type LoginRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type ValidateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type AuthResponse struct {
	User  *models.PublicUser `json:"user"`
	Token string             `json:"token"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// SignupHandler handles account creation.
func (api *Api) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Email, password, and name are required")
		return
	}
	if !auth.ValidateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := geo.ValidateCoordinate(*req.Latitude, *req.Longitude); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid coordinates")
			return
		}
	}

	user, token, err := api.auth.Signup(auth.SignupParams{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "User with this email already exists")
		case errors.Is(err, auth.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Email, password, and name are required")
		default:
			log.Printf("Signup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	// Signup responds with the bare identity fields only.
	writeJSON(w, http.StatusCreated, AuthResponse{
		User:  &models.PublicUser{ID: user.ID, Email: user.Email, Name: user.Name},
		Token: token,
	})
}

// LoginHandler handles credential plus geofence checked login.
func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := api.auth.Login(auth.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, auth.ErrLocationRequired):
			writeError(w, http.StatusBadRequest, "Location is required for this account")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, auth.ErrOutOfArea):
			writeError(w, http.StatusForbidden, "You are not in the allowed location to access this account")
		default:
			log.Printf("Login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user.Public(), Token: token})
}

// VerifyHandler confirms that the presented token still maps to a live
// session and returns its owner.
func (api *Api) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	user, err := api.auth.VerifyToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		log.Printf("Verify failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public()})
}

// LogoutHandler deletes the session row for the presented token.
func (api *Api) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	if err := api.auth.Logout(token); err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		log.Printf("Logout failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidateLocationHandler re-checks the geofence for a live session. A
// failing check revokes every session of the account as a side effect.
func (api *Api) ValidateLocationHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var req ValidateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}
	if err := geo.ValidateCoordinate(*req.Latitude, *req.Longitude); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	result, err := api.auth.ValidateLocation(token, models.Coordinate{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		log.Printf("Location validation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !result.Valid {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"isValid": false,
			"error":   result.Message,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"isValid": true,
		"message": result.Message,
	})
}
