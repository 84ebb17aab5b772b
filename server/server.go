// Package server provides HTTP server management and lifecycle handling for the medfinder API.
// It includes server setup, middleware configuration, route management, and graceful shutdown
// capabilities with proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medfinder/medfinder-api/config"
	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	rateLimiter *RateLimiter
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:        router,
			Addr:           cfg.Address + ":" + cfg.Port,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:      router,
		handler:     handler,
		rateLimiter: NewRateLimiter(bucketRate, bucketCapacity),
		config:      cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Handler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/medicines", func(r chi.Router) {
			r.Get("/search", h.SearchMedicines)
			r.Get("/popular", h.PopularMedicines)
			r.Get("/{id}", h.GetMedicine)
			r.Get("/{id}/substitutes", h.FindSubstitutes)
			r.Post("/{id}/substitutes/advanced", h.FindAdvancedSubstitutes)
		})

		r.Route("/pharmacies", func(r chi.Router) {
			r.Get("/nearby", h.NearbyPharmacies)
			r.Get("/compare/{medicineId}", h.ComparePrices)
			r.Get("/{id}", h.GetPharmacy)
			r.Get("/{id}/medicines/{medicineId}", h.GetPharmacyMedicine)
			r.Post("/{id}/medicines", h.UpsertPharmacyMedicine)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/pharmacy", h.RecommendPharmacies)
			r.Post("/best-pharmacy", h.BestPharmacy)
			r.Post("/personalized", h.PersonalizedRecommendations)
			r.Get("/price-trend/{medicineId}", h.PriceTrend)
		})
	})

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
	})
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	s.rateLimiter.StartCleanup(cleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
