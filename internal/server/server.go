// Package server is the HTTP facade a browser map editor talks to. It lays
// out world documents through the pipeline, routes edges for client-side
// positions and stores override documents.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/worldmap/internal/metrics"
	"github.com/matzehuels/worldmap/pkg/buildinfo"
	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/observability"
	"github.com/matzehuels/worldmap/pkg/pipeline"
	"github.com/matzehuels/worldmap/pkg/store"
)

// Defaults applied by New.
const (
	DefaultRequestTimeout = time.Minute
	DefaultMaxBodyBytes   = 8 << 20
)

// Options configures a Server.
type Options struct {
	Runner  *pipeline.Runner
	Store   store.Store      // Optional; document routes answer 503 without it
	Metrics *metrics.Metrics // Optional; /metrics answers 503 without it
	Logger  *log.Logger

	// Layout holds the option defaults requests start from.
	Layout pipeline.Options

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	metrics *metrics.Metrics
	log     *log.Logger

	layout  pipeline.Options
	timeout time.Duration
	maxBody int64
}

// New returns a Server. A nil Runner gets an uncached one.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		runner:  opts.Runner,
		store:   opts.Store,
		metrics: opts.Metrics,
		log:     opts.Logger,
		layout:  opts.Layout,
		timeout: opts.RequestTimeout,
		maxBody: opts.MaxBodyBytes,
	}
}

// Router builds the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/route", s.handleRoute)

		r.Route("/worlds", func(r chi.Router) {
			r.Get("/", s.handleListWorlds)
			r.Route("/{world}/overrides", func(r chi.Router) {
				r.Get("/", s.handleGetOverrides)
				r.Put("/", s.handlePutOverrides)
				r.Delete("/", s.handleDeleteOverrides)
			})
		})
	})

	return r
}

// ListenAndServe serves the router on addr until ctx is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			pattern = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, pattern, status, d)

		s.log.Debug("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": buildinfo.Get(),
	})
}

// =============================================================================
// JSON helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code apperr.Code, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	})
}

// writeErr maps a coded error to its HTTP status. Uncoded errors are
// reported as internal without their text.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.GetCode(err)
	status := statusFor(code)
	msg := apperr.UserMessage(err)
	if code == "" {
		code = apperr.ErrCodeInternal
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"err", err)
	}
	writeError(w, status, code, msg)
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.ErrCodeInvalidInput, apperr.ErrCodeInvalidWorld,
		apperr.ErrCodeInvalidEngine, apperr.ErrCodeInvalidName:
		return http.StatusBadRequest
	case apperr.ErrCodeNotFound:
		return http.StatusNotFound
	case apperr.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperr.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case apperr.ErrCodeLayoutFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// decodeJSONStrict decodes exactly one JSON value with no unknown fields.
func decodeJSONStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := decodeJSONStrict(body, dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "request body exceeds %d bytes", s.maxBody)
		}
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid request body: %v", err)
	}
	return nil
}
