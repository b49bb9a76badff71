// Package api exposes the quality checker over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/newsquality/internal/store"
)

// ResultStore is the persistence the API needs.
type ResultStore interface {
	SaveRun(ctx context.Context, source string, recs []store.Record) (store.Run, error)
	ListResults(ctx context.Context, f store.Filter) ([]store.Record, error)
	LatestRun(ctx context.Context) (*store.Run, error)
	RunResults(ctx context.Context, runID string) ([]store.Record, error)
}

// Config configures a Server.
type Config struct {
	// JWTSecret signs access tokens. Empty disables authentication.
	JWTSecret string
	// Clients maps client ids to bcrypt hashes of their secrets.
	Clients      map[string]string
	TokenTTL     time.Duration
	MaxBodyBytes int64
}

// Server holds the dependencies for the API.
type Server struct {
	store  ResultStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewServer creates a Server. st may be nil, in which case results are
// not persisted and the listing endpoints report 503.
func NewServer(st ResultStore, cfg Config, logger *slog.Logger) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, cfg: cfg, logger: logger, now: time.Now}
}

// Routes returns the configured http.Handler (ServeMux) for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth())
	mux.HandleFunc("POST /api/auth/token", s.handleToken())

	mux.Handle("POST /api/quality/check", s.requireAuth(s.handleCheck()))
	mux.Handle("GET /api/quality/results", s.requireAuth(s.handleListResults()))
	mux.Handle("GET /api/quality/runs/latest", s.requireAuth(s.handleLatestRun()))

	return s.logRequests(mux)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
