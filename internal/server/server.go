// Package server serves the interactive flow map.
//
// Every browser gets a session cookie that names its Selection State. The
// page's three controls post changes to /selection and reload
// /scene.svg, which composes the scene for the session, fades in the flows
// that were not shown before and remembers the new keys.
//
// # Routes
//
//	GET  /               page with the controls and the map
//	GET  /scene.svg      session scene (?width=W)
//	POST /selection      update the session selection (JSON or form)
//	GET  /api/locations  locations with totals
//	GET  /api/flows      selected flows as JSON (query overrides session)
//	GET  /healthz        liveness and build info
//	GET  /readyz         ready once a dataset is loaded
//	GET  /metrics        Prometheus metrics
//
// With Watch set, the data files are watched and a change reloads the
// dataset; requests keep using the previous snapshot until the new one is
// swapped in.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/session"
)

const (
	cookieName      = "flowmap_session"
	maxWidth        = 4096
	cleanupInterval = time.Minute
)

// Options configures a [Server].
type Options struct {
	Addr string

	// Pipeline holds the inputs, the initial selection of new sessions and
	// the drawing options.
	Pipeline pipeline.Options

	SessionTTL      time.Duration
	ShutdownTimeout time.Duration

	// Watch reloads the dataset when an input file changes.
	Watch bool

	// Metrics is optional; /metrics is only routed when set.
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// Server is the flow map HTTP server.
type Server struct {
	opts       Options
	runner     *pipeline.Runner
	sessions   session.Store
	logger     *log.Logger
	httpServer *http.Server

	mu      sync.RWMutex
	dataset *pipeline.Dataset
}

// New creates a server. The dataset is loaded by [Server.Run] or
// [Server.Reload].
func New(opts Options, runner *pipeline.Runner, sessions session.Store) *Server {
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	opts.Pipeline.SetRenderDefaults()

	s := &Server{
		opts:     opts,
		runner:   runner,
		sessions: sessions,
		logger:   opts.Logger,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/", s.handlePage)
	r.Get("/scene.svg", s.handleScene)
	r.Post("/selection", s.handleSelection)
	r.Route("/api", func(r chi.Router) {
		r.Get("/locations", s.handleLocations)
		r.Get("/flows", s.handleFlows)
	})
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}
	return r
}

// observe logs each request and records it in the metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		d := time.Since(start)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration", d)
		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveRequest(route, ww.Status(), d)
		}
	})
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// Dataset returns the current snapshot, nil before the first load.
func (s *Server) Dataset() *pipeline.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Reload loads the inputs and swaps in the new dataset. On failure the
// previous dataset stays in use.
func (s *Server) Reload(ctx context.Context) error {
	ds, err := s.runner.Load(ctx, s.opts.Pipeline)
	observability.Session().OnReload(ctx, err)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()
	return nil
}

// Run loads the dataset if needed and serves until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.Dataset() == nil {
		if err := s.Reload(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Watch {
		g.Go(func() error { return s.watch(gctx) })
	}
	g.Go(func() error {
		s.cleanup(gctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("http server starting", "addr", s.opts.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("http server stopping")
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// cleanup drops expired sessions and reports the live count.
func (s *Server) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup", "error", err)
				continue
			}
			observability.Session().OnSessionsSwept(ctx, n)
		}
	}
}
