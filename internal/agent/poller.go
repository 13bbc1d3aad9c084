package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/GeoGate-io/geogate/internal/models"
)

// LocationSensor produces a fresh coordinate sample on demand. The poller
// bounds each read with a timeout; implementations should honor ctx.
type LocationSensor interface {
	Current(ctx context.Context) (models.Coordinate, error)
}

// Options tunes the polling loop. Zero values fall back to the reference
// intervals.
type Options struct {
	Interval      time.Duration // between checks, default 30s
	SensorTimeout time.Duration // per location sample, default 10s
	RevokeDelay   time.Duration // between notice and local logout, default 3s
}

// Poller is the client-side control loop: sample location, submit it to the
// validation endpoint, and tear the local session down when the server says
// the geofence is broken. One loop per session; cancel the context to stop.
type Poller struct {
	serverURL string
	token     string
	sensor    LocationSensor
	client    *http.Client
	opts      Options

	// onRevoked clears local session state once a validation fails. Called
	// at most once, after RevokeDelay.
	onRevoked func(reason string)
}

// NewPoller wires a polling loop against the given API base URL.
func NewPoller(serverURL, token string, sensor LocationSensor, onRevoked func(reason string), opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.SensorTimeout <= 0 {
		opts.SensorTimeout = 10 * time.Second
	}
	if opts.RevokeDelay < 0 {
		opts.RevokeDelay = 0
	} else if opts.RevokeDelay == 0 {
		opts.RevokeDelay = 3 * time.Second
	}

	return &Poller{
		serverURL: serverURL,
		token:     token,
		sensor:    sensor,
		client:    &http.Client{Timeout: 15 * time.Second},
		opts:      opts,
		onRevoked: onRevoked,
	}
}

// Run performs one immediate check and then one per interval until the
// context is cancelled or the session is revoked. The ticker is owned by
// this call; no background work leaks after return.
func (p *Poller) Run(ctx context.Context) error {
	if done, err := p.tick(ctx); done {
		return err
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done, err := p.tick(ctx); done {
				return err
			}
		}
	}
}

// tick runs one sample-and-validate round trip. It returns done=true when
// the loop should stop: either the session was revoked or the context ended.
func (p *Poller) tick(ctx context.Context) (bool, error) {
	sensorCtx, cancel := context.WithTimeout(ctx, p.opts.SensorTimeout)
	coord, err := p.sensor.Current(sensorCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		// A sensor timeout or permission denial is a soft failure; the
		// next tick tries again.
		log.Printf("[AGENT] location check failed: %v", err)
		return false, nil
	}

	valid, message, err := p.validate(ctx, coord)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		// Transport failure is not a geofence violation.
		log.Printf("[AGENT] could not reach validation endpoint: %v", err)
		return false, nil
	}

	if valid {
		return false, nil
	}

	log.Printf("[AGENT] session revoked by server: %s", message)
	select {
	case <-time.After(p.opts.RevokeDelay):
	case <-ctx.Done():
		return true, ctx.Err()
	}
	if p.onRevoked != nil {
		p.onRevoked(message)
	}
	return true, nil
}

type validateResponse struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// validate submits one coordinate sample. valid=false means the server
// rejected the session (geofence breach or dead token); err covers only
// transport-level trouble.
func (p *Poller) validate(ctx context.Context, coord models.Coordinate) (bool, string, error) {
	body, err := json.Marshal(map[string]float64{
		"latitude":  coord.Latitude,
		"longitude": coord.Longitude,
	})
	if err != nil {
		return false, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.serverURL+"/location/validate", bytes.NewReader(body))
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, "", err
	}
	defer resp.Body.Close()

	var parsed validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, "", fmt.Errorf("decode response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK && parsed.IsValid:
		return true, parsed.Message, nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		message := parsed.Error
		if message == "" {
			message = "You have moved outside the allowed area"
		}
		return false, message, nil
	default:
		// 5xx and surprises are treated like transport failure.
		return false, "", errors.New(http.StatusText(resp.StatusCode))
	}
}
