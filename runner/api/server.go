// Package api serves stored runs, rendered charts and process metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/buildbench/runner/charter"
	"github.com/buildbench/runner/metrics"
	"github.com/buildbench/runner/types"
)

// RunSource is the read side of the run store
type RunSource interface {
	LoadAllRuns(ctx context.Context) ([]types.Run, error)
	LoadLatestRuns(ctx context.Context) ([]types.Run, error)
	LoadRunsByIDs(ctx context.Context, ids []types.RunID) ([]types.Run, error)
	Ping(ctx context.Context) error
}

// Server provides HTTP API endpoints for stored runs and charts
type Server struct {
	addr     string
	runs     RunSource
	charter  *charter.Charter
	recorder *metrics.Recorder
	log      logrus.FieldLogger

	// the run store is not safe for concurrent use
	storeMu sync.Mutex

	httpServer *http.Server
	mu         sync.Mutex
	listener   net.Listener
	serveErr   chan error
}

// NewServer creates a new API server instance
func NewServer(addr string, runs RunSource, c *charter.Charter, recorder *metrics.Recorder, log logrus.FieldLogger) *Server {
	return &Server{
		addr:     addr,
		runs:     runs,
		charter:  c,
		recorder: recorder,
		log:      log.WithField("component", "api-server"),
	}
}

// Start binds the listen address and begins serving in the background. A
// bind failure is returned; later serve failures arrive on Err.
func (s *Server) Start() error {
	s.log.Info("Starting API server")

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.serveErr = make(chan error, 1)

	s.httpServer = &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("API server listening")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("API server failed")
			s.serveErr <- err
		}
		close(s.serveErr)
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Err delivers the error that stopped serving. It is closed once serving ends
// and is nil before Start.
func (s *Server) Err() <-chan error {
	return s.serveErr
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("Failed to shutdown API server gracefully")
		return err
	}

	s.log.Info("API server stopped")
	return nil
}

// Handler returns the router with every route and middleware installed
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.Use(s.enableCORS)
	router.Use(s.loggingMiddleware)
	router.Use(s.metricsMiddleware)
	router.Use(s.errorHandlingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET", "OPTIONS")
	api.HandleFunc("/runs/{runId}", s.handleGetRun).Methods("GET", "OPTIONS")
	api.HandleFunc("/charts", s.handleListCharts).Methods("GET", "OPTIONS")
	api.HandleFunc("/export", s.handleExport).Methods("GET", "OPTIONS")
	api.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")

	router.HandleFunc("/charts/{file}", s.handleChart).Methods("GET", "OPTIONS")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(s.recorder.Gatherer(), promhttp.HandlerOpts{})).Methods("GET")

	return router
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("Failed to encode JSON response")
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":   true,
		"message": message,
		"status":  statusCode,
	})
}
