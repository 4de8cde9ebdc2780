// Package server provides the HTTP server and routing for the QAOA service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/config"
	"github.com/aristath/qaoa/internal/events"
	"github.com/aristath/qaoa/internal/modules/qaoa"
	qaoahandlers "github.com/aristath/qaoa/internal/modules/qaoa/handlers"
	quboHandlers "github.com/aristath/qaoa/internal/modules/qubo/handlers"
	"github.com/aristath/qaoa/internal/modules/runs"
	runshandlers "github.com/aristath/qaoa/internal/modules/runs/handlers"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	Service  *qaoa.Service
	RunsRepo *runs.Repository
	EventBus *events.Bus
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	service        *qaoa.Service
	runsRepo       *runs.Repository
	eventBus       *events.Bus
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		cfg:      cfg.Config,
		service:  cfg.Service,
		runsRepo: cfg.RunsRepo,
		eventBus: cfg.EventBus,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config, cfg.RunsRepo)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Config.Port),
		Handler: s.router,
		// Optimization runs can take a while; the write timeout has to
		// cover a full solve, not just a quick JSON response.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Unified events stream (SSE)
		eventsStreamHandler := NewEventsStreamHandler(s.eventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		// System monitoring
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
		})

		// QUBO module
		quboHandler := quboHandlers.NewHandler(s.log)
		quboHandler.RegisterRoutes(r)

		// QAOA module
		qaoaHandler := qaoahandlers.NewHandler(s.service, s.cfg.DefaultBackend, s.log)
		qaoaHandler.RegisterRoutes(r)

		// Run history module
		runsHandler := runshandlers.NewHandler(s.runsRepo, s.log)
		runsHandler.RegisterRoutes(r)
	})
}

// handleRoot serves service metadata
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"service": "qaoa-optimization-service",
		"status":  "running",
		"endpoints": []string{
			"/api/health",
			"/api/generate-qubo",
			"/api/solve-qaoa",
			"/api/run-qaoa",
			"/api/runs",
			"/api/events/stream",
			"/api/system/status",
		},
	})
}

// handleHealth serves the health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"backend": s.cfg.DefaultBackend,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
