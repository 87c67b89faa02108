// Package server implements the netdraw HTTP service: netlists in, rendered
// schematics out, with previously rendered diagrams retrievable by ID.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/netdraw/pkg/layout"
	"github.com/matzehuels/netdraw/pkg/pipeline"
	"github.com/matzehuels/netdraw/pkg/store"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wires the router, pipeline runner and diagram store together.
type Server struct {
	runner   *pipeline.Runner
	engine   layout.Engine
	skinText string
	store    store.Store
	logger   *log.Logger
	http     *http.Server
}

// Options configures a Server.
type Options struct {
	Addr     string
	Runner   *pipeline.Runner
	Engine   layout.Engine
	SkinText string
	Store    store.Store
	Logger   *log.Logger
}

// New creates a server. A nil store falls back to an in-memory store; a nil
// logger falls back to the default logger.
func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Server{
		runner:   opts.Runner,
		engine:   opts.Engine,
		skinText: opts.SkinText,
		store:    opts.Store,
		logger:   opts.Logger,
	}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Get("/diagrams", s.handleListDiagrams)
		r.Get("/diagrams/{id}", s.handleGetDiagram)
	})
	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
