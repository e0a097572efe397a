package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
	"github.com/taichungmao-blip/soybean-monitor/internal/monitor"
)

// Runner is the slice of the monitor the admin server needs.
type Runner interface {
	RunOnce(ctx context.Context) (*model.Report, error)
	Latest() *model.Report
	Running() bool
}

// Server is the local admin/metrics HTTP endpoint.
type Server struct {
	router  *mux.Router
	server  *http.Server
	runner  Runner
	metrics http.Handler
}

// New builds the server; bind to a loopback address unless deliberately exposed.
func New(addr string, runner Runner, metricsHandler http.Handler) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		runner:  runner,
		metrics: metricsHandler,
	}
	s.routes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(requestLogging)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/report/latest", s.handleLatest).Methods(http.MethodGet)
	api.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("admin server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	rep := s.runner.Latest()
	if rep == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleRun triggers a run in the background and answers immediately.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in flight"})
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.runner.RunOnce(ctx); err != nil && !errors.Is(err, monitor.ErrRunInFlight) {
			log.Error().Err(err).Msg("manually triggered run failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "run accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

// requestLogging tags each request with an ID and logs its outcome.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", reqID)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("request_id", reqID).Str("method", r.Method).
			Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("http request")
	})
}
