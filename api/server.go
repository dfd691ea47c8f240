// Package api exposes the run control surface over HTTP: lifecycle endpoints,
// state reads, order injection, history queries and a WebSocket state stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/parcelops/fleetsim/core/sim"
	"github.com/parcelops/fleetsim/infra/logger"
)

// Config defines the HTTP listener settings.
type Config struct {
	Addr           string   `json:"addr"`
	Token          string   `json:"token"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults fills in zero-valued fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// Server serves the fleet simulation API.
type Server struct {
	mgr   *sim.Manager
	cfg   Config
	log   logger.Logger
	hello string
}

// NewServer builds a server around the run manager.
func NewServer(mgr *sim.Manager, cfg Config, log logger.Logger) (*Server, error) {
	if mgr == nil {
		return nil, fmt.Errorf("api: manager is required")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	cfg.SetDefaults()
	return &Server{mgr: mgr, cfg: cfg, log: log, hello: "fleetsim"}, nil
}

// Router builds the chi router with all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/start", s.start)
		r.Post("/stop", s.stop)
		r.Post("/pause", s.pause)
		r.Post("/resume", s.resume)
		r.Get("/status", s.status)
		r.Get("/state", s.state)
		r.Get("/map", s.mapInfo)
		r.Post("/orders", s.orders)
		r.Get("/history", s.history)
		r.Get("/agents/{id}/kpis", s.agentKPIs)
		r.Post("/kpis/backfill", s.backfillKPIs)
	})
	r.Get("/ws", s.websocket)

	return r
}

// Run serves the API until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
