// Package server exposes the aggregated incentives over HTTP: the
// incentives query endpoint, per-source health, and Prometheus metrics.
// Responses are cached briefly per canonical filter so bursts do not fan
// out to every provider.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"incentive-hub/internal/aggregate"
	"incentive-hub/internal/cache"
	"incentive-hub/internal/observability"
)

// DefaultResponseTTL is how long a combined fetch result is served from
// cache before providers are queried again.
const DefaultResponseTTL = 60 * time.Second

// Server is the HTTP front of the aggregation service.
type Server struct {
	service   *aggregate.Service
	responses *cache.Cache[string, cachedResult]
	logger    *slog.Logger
	http      *http.Server
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	Service        *aggregate.Service
	ResponseTTL    time.Duration // defaults to DefaultResponseTTL
	AllowedOrigins []string      // defaults to allowing every origin
	Logger         *slog.Logger
}

// New creates the HTTP server and wires its routes.
func New(opts Options) *Server {
	ttl := opts.ResponseTTL
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		service:   opts.Service,
		responses: cache.New[string, cachedResult](ttl),
		logger:    logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/v1/incentives", s.handleIncentives).Methods(http.MethodGet)
	router.HandleFunc("/v1/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	router.Use(s.requestMiddleware)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
	}).Handler(router)

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the fully wired handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs the server until it fails or is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// StartSweeper launches background eviction of expired cached responses.
func (s *Server) StartSweeper(ctx context.Context) {
	s.responses.StartSweeper(ctx, time.Minute)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
