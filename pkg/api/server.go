// Package api serves label placement over HTTP.
//
// Routes:
//
//	POST /v1/placements           place labels and store the run (201)
//	GET  /v1/placements           list recent runs (?limit=n)
//	GET  /v1/placements/{id}      fetch a run (?format=json|geojson|csv)
//	GET  /healthz                 liveness probe
//
// Errors are returned as {"code": "...", "message": "..."} with the status
// from errors.HTTPStatus.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/observability"
	"github.com/matzehuels/pointlabel/pkg/pipeline"
	"github.com/matzehuels/pointlabel/pkg/store"
)

// Request limits.
const (
	// DefaultMaxPoints caps points per placement request.
	DefaultMaxPoints = 1_000_000

	// DefaultMaxBodyBytes caps request body size.
	DefaultMaxBodyBytes = 64 << 20
)

// Options configures a Server.
type Options struct {
	Runner       *pipeline.Runner // required
	Store        store.Store      // nil means a MemoryStore
	Logger       *log.Logger
	MaxPoints    int
	MaxBodyBytes int64
}

// Server holds the handlers' dependencies.
type Server struct {
	runner       *pipeline.Runner
	store        store.Store
	logger       *log.Logger
	maxPoints    int
	maxBodyBytes int64
}

// New creates a server, applying defaults for unset options.
func New(opts Options) *Server {
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		runner:       opts.Runner,
		store:        opts.Store,
		logger:       opts.Logger,
		maxPoints:    opts.MaxPoints,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	// Set before Route so the sub-router inherits them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:    "METHOD_NOT_ALLOWED",
			Message: r.Method + " is not allowed on " + r.URL.Path,
		})
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/placements", func(r chi.Router) {
		r.Post("/", s.handleCreatePlacement)
		r.Get("/", s.handleListPlacements)
		r.Get("/{id}", s.handleGetPlacement)
	})
	return r
}

// logRequests logs each request and reports it to the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and JSON body. Internal details are logged
// rather than returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		if code == "" {
			code = errors.ErrCodeInternal
		}
		msg = http.StatusText(status)
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	writeJSON(w, status, errorBody{Code: string(code), Message: msg})
}
