package main

import (
	"flag"
	"log"

	"github.com/GeoGate-io/geogate/internal/api"
	"github.com/GeoGate-io/geogate/internal/auth"
	"github.com/GeoGate-io/geogate/internal/config"
	"github.com/GeoGate-io/geogate/internal/database"
	"github.com/GeoGate-io/geogate/internal/storage"
	"github.com/GeoGate-io/geogate/internal/store"
)

const version = "0.1.0"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	st := store.New(db, cfg.Database.Type)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authService := auth.NewService(st, tokens, cfg.Auth.SessionTTL, cfg.Auth.DefaultRadiusMeters)

	if cfg.AuditEnabled() {
		archive, err := storage.NewViolationArchive(cfg)
		if err != nil {
			return nil, err
		}
		authService.SetAuditSink(archive)
		log.Printf("Violation audit archive enabled (bucket %s)", cfg.Audit.Bucket)
	}

	return api.NewApi(*cfg, authService, st)
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting GeoGate API v%s with config: %s", version, *configPath)

	api, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	api.Serve()
}
