package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GeoGate-io/geogate/internal/agent"
	"github.com/GeoGate-io/geogate/internal/models"
)

// fileSensor reads the current coordinate from a JSON file on every tick,
// so an external process can feed position updates to the agent.
type fileSensor struct {
	path string
}

func (f fileSensor) Current(ctx context.Context) (models.Coordinate, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return models.Coordinate{}, err
	}
	var coord models.Coordinate
	if err := json.Unmarshal(data, &coord); err != nil {
		return models.Coordinate{}, fmt.Errorf("parse location file: %w", err)
	}
	return coord, nil
}

// staticSensor always reports the same coordinate.
type staticSensor struct {
	coord models.Coordinate
}

func (s staticSensor) Current(ctx context.Context) (models.Coordinate, error) {
	return s.coord, nil
}

func main() {
	serverURL := flag.String("server", "http://localhost:8081", "API base URL")
	token := flag.String("token", "", "Session token to keep alive")
	locationFile := flag.String("location-file", "", "JSON file with {latitude, longitude}, re-read each tick")
	lat := flag.Float64("lat", 0, "Static latitude (ignored when -location-file is set)")
	lon := flag.Float64("lon", 0, "Static longitude (ignored when -location-file is set)")
	interval := flag.Duration("interval", 30*time.Second, "Time between location checks")
	flag.Parse()

	if *token == "" {
		log.Fatal("-token is required")
	}

	var sensor agent.LocationSensor
	if *locationFile != "" {
		sensor = fileSensor{path: *locationFile}
	} else {
		sensor = staticSensor{coord: models.Coordinate{Latitude: *lat, Longitude: *lon}}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := agent.NewPoller(*serverURL, *token, sensor, func(reason string) {
		log.Printf("Session terminated: %s", reason)
		log.Printf("Log in again from an allowed location to continue.")
	}, agent.Options{Interval: *interval})

	log.Printf("Polling %s every %s", *serverURL, *interval)
	if err := poller.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
