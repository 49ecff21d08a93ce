// Package server exposes the tree pipeline over HTTP.
//
// Routes:
//
//	POST /v1/trees       FASTA body → tree, edges, support and drawings (JSON)
//	POST /v1/distances   FASTA body → distance matrix (tab-separated text)
//	GET  /healthz        liveness
//	GET  /version        build information
//	GET  /metrics        Prometheus metrics
//
// Errors are JSON objects {"error": {"code": ..., "message": ...}} with the
// status given by pkg/errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/njtree/pkg/observability"
	"github.com/matzehuels/njtree/pkg/pipeline"
)

// Defaults for [Options].
const (
	DefaultMaxBodyBytes  = 32 << 20
	DefaultMaxReplicates = 1000
	DefaultMaxConcurrent = 4
	shutdownTimeout      = 10 * time.Second
)

// Options configures a [Server]. Zero values take the defaults above.
type Options struct {
	Addr string

	// MaxBodyBytes bounds the size of an uploaded alignment.
	MaxBodyBytes int64

	// MaxReplicates bounds the replicate count a request may ask for.
	MaxReplicates int

	// MaxConcurrent bounds how many pipeline requests run at once; the
	// rest wait for a slot.
	MaxConcurrent int

	// Workers is passed to every pipeline run. Zero means one per CPU.
	Workers int

	Logger  *log.Logger
	Metrics *Metrics
}

func (o *Options) setDefaults() {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.MaxReplicates <= 0 {
		o.MaxReplicates = DefaultMaxReplicates
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics()
	}
}

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	opts    Options
	logger  *log.Logger
	metrics *Metrics
	router  chi.Router
}

// New creates a server around runner and installs its metrics as the
// process-wide observability hooks.
func New(runner *pipeline.Runner, opts Options) *Server {
	opts.setDefaults()
	s := &Server{
		runner:  runner,
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	s.metrics.Install()
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Throttle(s.opts.MaxConcurrent))
		r.Post("/trees", s.handleTrees)
		r.Post("/distances", s.handleDistances)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on opts.Addr until ctx is done, then shuts down
// gracefully. A shutdown triggered by ctx returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// observe reports every request to the server hooks and the log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", d)
	})
}
