// Package server exposes ARTEMIS over HTTP: the conversational endpoint
// with its confirm/cancel handshake, the board's task CRUD surface, the
// taxonomy endpoint, and health/metrics.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"artemis/internal/assistant"
	"artemis/internal/config"
	"artemis/internal/metrics"
	"artemis/internal/store"
)

// Server is the HTTP service.
type Server struct {
	cfgFn      func() *config.Config
	store      *store.Store
	pipeline   *assistant.Pipeline
	httpServer *http.Server
	logger     *zap.Logger
	startTime  time.Time
}

// New creates the server. cfgFn is called per request so configuration
// hot reloads are observed without a restart.
func New(cfgFn func() *config.Config, st *store.Store, pipeline *assistant.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfgFn:     cfgFn,
		store:     st,
		pipeline:  pipeline,
		logger:    logger,
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the request mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.instrument("/api/chat", s.handleChat))
	mux.HandleFunc("GET /api/tasks", s.instrument("/api/tasks", s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.instrument("/api/tasks", s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", s.instrument("/api/tasks/{id}", s.handleGetTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", s.instrument("/api/tasks/{id}", s.handlePatchTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.instrument("/api/tasks/{id}", s.handleDeleteTask))
	mux.HandleFunc("POST /api/tasks/{id}/dependencies/{depID}",
		s.instrument("/api/tasks/{id}/dependencies/{depID}", s.handleAddDependency))
	mux.HandleFunc("DELETE /api/tasks/{id}/dependencies/{depID}",
		s.instrument("/api/tasks/{id}/dependencies/{depID}", s.handleRemoveDependency))
	mux.HandleFunc("GET /api/config", s.instrument("/api/config", s.handleConfig))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).
			Observe(time.Since(start).Seconds())
	}
}

// Start listens and serves until the listener is closed. The listener
// caps concurrent connections per config.
func (s *Server) Start() error {
	cfg := s.cfgFn()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}
	if cfg.Server.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConns)
	}

	s.logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
