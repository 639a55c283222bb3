// Package httpapi serves the document question answering pipeline over HTTP.
// All /api/v1 routes except token issuance require an HS256 bearer token.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/metrics"
)

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: answer, search, document and decision services are required")

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	defaultMaxUpload  = 50 << 20
)

// Ports aggregates the driving ports the API serves.
type Ports struct {
	Answer   driving.AnswerService
	Search   driving.SearchService
	Document driving.DocumentService
	Decision driving.DecisionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil || p.Search == nil || p.Document == nil || p.Decision == nil {
		return ErrMissingService
	}
	return nil
}

// Server is the HTTP API.
type Server struct {
	ports         *Ports
	auth          *Authenticator
	maxUpload     int64
	defaultTopK   int
	metricsHandle http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload bounds the accepted upload size in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithDefaultTopK sets the result count used when a search omits top_k.
func WithDefaultTopK(k int) Option {
	return func(s *Server) {
		if k > 0 {
			s.defaultTopK = k
		}
	}
}

// NewServer creates an API server.
func NewServer(ports *Ports, auth *Authenticator, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		ports:         ports,
		auth:          auth,
		maxUpload:     defaultMaxUpload,
		defaultTopK:   5,
		metricsHandle: metrics.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(requestID)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.metricsHandle).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/token", s.handleToken).Methods(http.MethodGet)

	secured := api.NewRoute().Subrouter()
	secured.Use(s.auth.Middleware)
	secured.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
	secured.HandleFunc("/documents", s.handleUpload).Methods(http.MethodPost)
	secured.HandleFunc("/documents", s.handleStats).Methods(http.MethodGet)
	secured.HandleFunc("/documents/{name}", s.handleDelete).Methods(http.MethodDelete)
	secured.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	secured.HandleFunc("/explain", s.handleExplain).Methods(http.MethodPost)
	secured.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)

	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// requestID tags every request and response with an X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s [%s] %s", r.Method, r.URL.Path, id, time.Since(start))
	})
}
