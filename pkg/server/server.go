// Package server exposes the pipeline and the frame library over HTTP.
//
// Routes:
//
//	GET    /healthz                  build info
//	GET    /api/v1/frame?data=...    render a packed frame (format, pivots, labels)
//	POST   /api/v1/encode            scene document → packed record
//	POST   /api/v1/simulate          pipeline options with a scene → simulated frame and artifacts
//	POST   /api/v1/library           save a scene document
//	GET    /api/v1/library           list saved frames
//	GET    /api/v1/library/{id}      fetch a saved frame
//	DELETE /api/v1/library/{id}      delete a saved frame
//	GET    /api/v1/stats             pipeline, cache and route counters
//
// Every request builds its own frame; handlers share only the runner and
// the library, which are safe for concurrent use. Errors are reported as
// {"error": {"code", "message"}} with a status derived from the code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pivotframe/pkg/observability"
	"github.com/matzehuels/pivotframe/pkg/pipeline"
	"github.com/matzehuels/pivotframe/pkg/storage"
)

// Defaults for [Config].
const (
	DefaultAddr     = ":8080"
	DefaultTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// ShareBase is the editor URL that share links are built on. Responses
	// carry no share URL when it is empty.
	ShareBase string

	// Timeout bounds each request, including solver ticks.
	Timeout time.Duration

	// Stats is served at /api/v1/stats. The route answers 501 when nil.
	// Registering it with the observability hooks is up to the caller.
	Stats *observability.Counters
}

// Server serves the HTTP API.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	library storage.Store
	logger  *log.Logger
	router  chi.Router
}

// New returns a server using runner for pipeline requests. library may be
// nil, in which case the library routes answer 501.
func New(cfg Config, runner *pipeline.Runner, library storage.Store, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{cfg: cfg, runner: runner, library: library, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(s.deadline)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/frame", s.handleFrame)
		r.Post("/encode", s.handleEncode)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/stats", s.handleStats)
		r.Route("/library", func(r chi.Router) {
			r.Post("/", s.handleLibrarySave)
			r.Get("/", s.handleLibraryList)
			r.Get("/{id}", s.handleLibraryGet)
			r.Delete("/{id}", s.handleLibraryDelete)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
