package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GeoGate-io/geogate/internal/auth"
	"github.com/GeoGate-io/geogate/internal/config"
	"github.com/GeoGate-io/geogate/internal/store"
)

// Api owns the router and the handler dependencies.
type Api struct {
	Config config.Config
	Router *chi.Mux
	auth   *auth.Service
	store  *store.Store
}

// NewApi builds the router around an already-wired auth service.
func NewApi(cfg config.Config, authService *auth.Service, st *store.Store) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, fmt.Errorf("must have at least a port to start API")
	}

	api := &Api{
		Config: cfg,
		Router: chi.NewRouter(),
		auth:   authService,
		store:  st,
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*.local:*", "http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/heartbeat"))

	// Public routes
	r.Post("/auth/signup", api.SignupHandler)
	r.Post("/auth/login", api.LoginHandler)

	// Routes that carry a bearer token
	r.Group(func(r chi.Router) {
		r.Use(api.BearerTokenMiddleware)
		r.Get("/auth/verify", api.VerifyHandler)
		r.Post("/auth/logout", api.LogoutHandler)
		r.Post("/location/validate", api.ValidateLocationHandler)
	})
}

// Serve starts the HTTP listener and the expired-session sweep.
func (api *Api) Serve() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			if err := api.store.DeleteExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
			<-ticker.C
		}
	}()

	log.Printf("Starting API server on 0.0.0.0:%d", api.Config.APIPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort), api.Router))
}
