package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeoGate-io/geogate/internal/auth"
	"github.com/GeoGate-io/geogate/internal/config"
	"github.com/GeoGate-io/geogate/internal/database"
	"github.com/GeoGate-io/geogate/internal/store"
)

const (
	homeLat = 37.7749
	homeLon = -122.4194
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{APIPort: 8081}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "api_test.db")
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.SessionTTL = 7 * 24 * time.Hour
	cfg.Auth.DefaultRadiusMeters = 100

	db, err := database.Open(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db, "sqlite")
	svc := auth.NewService(st, auth.NewTokenManager(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL, cfg.Auth.DefaultRadiusMeters)

	apiInstance, err := NewApi(cfg, svc, st)
	require.NoError(t, err)

	server := httptest.NewServer(apiInstance.Router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, token string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func signupRequest(email string, withArea bool) map[string]interface{} {
	req := map[string]interface{}{
		"email":    email,
		"password": "Sup3rSecret!",
		"name":     "Test User",
	}
	if withArea {
		req["latitude"] = homeLat
		req["longitude"] = homeLon
	}
	return req
}

func TestSignupEndpoint(t *testing.T) {
	server := setupTestServer(t)

	t.Run("Created", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/signup", "", signupRequest("new@example.com", true))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "new@example.com", user["email"])
		assert.NotEmpty(t, user["id"])
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/signup", "", signupRequest("new@example.com", false))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "already exists")
	})

	t.Run("MissingFields", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/signup", "", map[string]interface{}{"email": "x@example.com"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("BadCoordinates", func(t *testing.T) {
		req := signupRequest("badcoord@example.com", false)
		req["latitude"] = 91.0
		req["longitude"] = 0.0
		resp := postJSON(t, server.URL+"/auth/signup", "", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)
	resp := postJSON(t, server.URL+"/auth/signup", "", signupRequest("fenced@example.com", true))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	t.Run("InsideArea", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/login", "", map[string]interface{}{
			"email":     "fenced@example.com",
			"password":  "Sup3rSecret!",
			"latitude":  homeLat,
			"longitude": homeLon,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, homeLat, user["allowedLatitude"])
		assert.Equal(t, 100.0, user["allowedRadius"])
	})

	t.Run("OutsideArea", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/login", "", map[string]interface{}{
			"email":     "fenced@example.com",
			"password":  "Sup3rSecret!",
			"latitude":  34.0522,
			"longitude": -118.2437,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("LocationRequired", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/login", "", map[string]interface{}{
			"email":    "fenced@example.com",
			"password": "Sup3rSecret!",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("BadCredentials", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/login", "", map[string]interface{}{
			"email":     "fenced@example.com",
			"password":  "wrong",
			"latitude":  homeLat,
			"longitude": homeLon,
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeBody(t, resp)
		// The same generic message covers unknown email and bad password.
		assert.Equal(t, "Invalid email or password", body["error"])
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/login", "", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "whatever",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Invalid email or password", body["error"])
	})
}

func TestVerifyEndpoint(t *testing.T) {
	server := setupTestServer(t)
	resp := postJSON(t, server.URL+"/auth/signup", "", signupRequest("verify@example.com", false))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)

	get := func(t *testing.T, bearer string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, server.URL+"/auth/verify", nil)
		require.NoError(t, err)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		r, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return r
	}

	t.Run("ValidToken", func(t *testing.T) {
		resp := get(t, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "verify@example.com", user["email"])
	})

	t.Run("NoToken", func(t *testing.T) {
		resp := get(t, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("GarbageToken", func(t *testing.T) {
		resp := get(t, "garbage.token.here")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("AfterLogout", func(t *testing.T) {
		logoutResp := postJSON(t, server.URL+"/auth/logout", token, struct{}{})
		assert.Equal(t, http.StatusNoContent, logoutResp.StatusCode)
		logoutResp.Body.Close()

		resp := get(t, token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestValidateLocationEndpoint(t *testing.T) {
	server := setupTestServer(t)
	resp := postJSON(t, server.URL+"/auth/signup", "", signupRequest("fenced@example.com", true))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)

	t.Run("InsideArea", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/location/validate", token, map[string]float64{
			"latitude":  homeLat,
			"longitude": homeLon,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["isValid"])
	})

	t.Run("MissingCoordinates", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/location/validate", token, map[string]float64{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("ViolationRevokesAccount", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/location/validate", token, map[string]float64{
			"latitude":  34.0522,
			"longitude": -118.2437,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, false, body["isValid"])
		assert.NotEmpty(t, body["error"])

		// The same token is dead now; verify answers 401.
		req, err := http.NewRequest(http.MethodGet, server.URL+"/auth/verify", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		verifyResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, verifyResp.StatusCode)
		verifyResp.Body.Close()

		// So is the validate endpoint itself.
		again := postJSON(t, server.URL+"/location/validate", token, map[string]float64{
			"latitude":  homeLat,
			"longitude": homeLon,
		})
		assert.Equal(t, http.StatusUnauthorized, again.StatusCode)
		again.Body.Close()
	})

	t.Run("NoArea", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/auth/signup", "", signupRequest("roam@example.com", false))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		freeToken := decodeBody(t, resp)["token"].(string)

		check := postJSON(t, server.URL+"/location/validate", freeToken, map[string]float64{
			"latitude":  -33.8688,
			"longitude": 151.2093,
		})
		assert.Equal(t, http.StatusOK, check.StatusCode)
		body := decodeBody(t, check)
		assert.Equal(t, true, body["isValid"])
		assert.Contains(t, body["message"], "No location restriction")
	})
}

func TestHeartbeat(t *testing.T) {
	server := setupTestServer(t)
	resp, err := http.Get(server.URL + "/heartbeat")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
