// Package server exposes discovery, enrichment and the run log over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/pipeline"
	"github.com/sells-group/company-finder/internal/resilience"
	"github.com/sells-group/company-finder/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Discoverer runs a discovery.
type Discoverer interface {
	Discover(ctx context.Context, req model.SearchRequest) (*pipeline.DiscoverResult, error)
}

// Enricher fills in details for known companies.
type Enricher interface {
	Enrich(ctx context.Context, req model.EnrichRequest) (*model.SearchResponse, error)
}

// RunReader reads the run log.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error)
}

// Config tunes the HTTP surface.
type Config struct {
	AllowedOrigins []string
	// RequestTimeout bounds a discovery or enrichment; 0 means no limit
	// beyond the client's own disconnect.
	RequestTimeout time.Duration
}

// Server routes HTTP requests to the pipeline. runs may be nil, in which
// case the run log endpoints answer 503.
type Server struct {
	discoverer Discoverer
	enricher   Enricher
	runs       RunReader
	cfg        Config
}

// New creates a Server.
func New(d Discoverer, e Enricher, runs RunReader, cfg Config) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{discoverer: d, enricher: e, runs: runs, cfg: cfg}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Run-ID", "X-Search-Error"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/enrich", s.handleEnrich)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	res, err := s.discoverer.Discover(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Run-ID", res.RunID)
	if res.SearchErr != nil {
		w.Header().Set("X-Search-Error", string(resilience.KindOf(res.SearchErr)))
	}
	writeJSON(w, http.StatusOK, res.Response)
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req model.EnrichRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	resp, err := s.enricher.Enrich(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("run log is not configured"))
		return
	}

	q := r.URL.Query()
	filter := model.RunFilter{Status: model.RunStatus(q.Get("status"))}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("offset must be a non-negative integer"))
		return
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("run log is not configured"))
		return
	}

	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	switch resilience.KindOf(err) {
	case resilience.KindValidation:
		return http.StatusBadRequest
	case resilience.KindUnavailable, resilience.KindTimeout, resilience.KindMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("server: request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody(msg))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
