// Package api exposes the signal engine over HTTP: latest evaluation
// results, per-symbol lookup, health, Prometheus metrics and the WebSocket
// push endpoint.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/internal/websocket"
	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// SignalSource exposes the most recent completed evaluation batch
type SignalSource interface {
	Latest() *models.Batch
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Server is the HTTP API server
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	router     *mux.Router
	httpServer *http.Server

	source SignalSource
	hub    *websocket.Hub
	checks map[string]HealthCheck
}

// NewServer creates the API server. hub may be nil when the WebSocket push
// is disabled.
func NewServer(cfg *config.Config, source SignalSource, hub *websocket.Hub, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		source: source,
		hub:    hub,
		checks: make(map[string]HealthCheck),
	}

	s.setupRoutes()
	return s
}

// AddHealthCheck registers a named dependency probe for /health
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	if s.cfg.Security.CORSEnabled {
		s.router.Use(s.corsMiddleware)
	}

	apiV1 := s.router.PathPrefix("/api/v1").Subrouter()

	apiV1.HandleFunc("/health", s.handleHealth).Methods("GET")
	apiV1.HandleFunc("/signals", s.handleGetSignals).Methods("GET")
	apiV1.HandleFunc("/signals/{symbol}", s.handleGetSignal).Methods("GET")

	if s.hub != nil && s.cfg.WebSocket.Enabled {
		apiV1.HandleFunc("/ws", s.hub.HandleWS).Methods("GET")
	}

	if s.cfg.Monitoring.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
}

// Start runs the HTTP server until it is stopped
func (s *Server) Start() error {
	addr := s.cfg.GetServerAddr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.WithField("address", addr).Info("Starting HTTP server")

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		if strings.Contains(err.Error(), "address already in use") {
			return fmt.Errorf("port %d is already in use", s.cfg.Server.Port)
		}
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured router, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Middleware

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start),
			"remote":   r.RemoteAddr,
		}).Debug("HTTP request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"error": err,
					"path":  r.URL.Path,
				}).Error("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(s.cfg.Security.CORSOrigins),
		handlers.AllowedMethods(s.cfg.Security.CORSMethods),
		handlers.AllowedHeaders(s.cfg.Security.CORSHeaders),
	)(next)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
