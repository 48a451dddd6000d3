// Package web serves the dashboard over a JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/colonyops/qcdash/internal/core/config"
	"github.com/colonyops/qcdash/internal/dashboard"
)

// Server handles HTTP requests.
type Server struct {
	router     chi.Router
	svc        *dashboard.Service
	desk       *dashboard.Desk
	milestones config.MilestonesConfig
	timeout    time.Duration
	log        zerolog.Logger
	profiler   bool
}

// Option configures a Server.
type Option func(*Server)

// WithProfiler mounts the pprof handlers under /debug.
func WithProfiler() Option {
	return func(s *Server) { s.profiler = true }
}

// New creates a server. milestones supplies the names and inclusion rules
// used when a request does not name its own.
func New(svc *dashboard.Service, desk *dashboard.Desk, milestones config.MilestonesConfig, timeout time.Duration, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		svc:        svc,
		desk:       desk,
		milestones: milestones,
		timeout:    timeout,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	if s.profiler {
		r.Mount("/debug", middleware.Profiler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Get("/milestones/status", s.milestoneStatus)
		r.Get("/milestones/gate", s.milestoneGate)

		r.Get("/issues/{number}/status", s.issueStatus)
		r.Post("/issues/{number}/unapprove", s.unapprove)

		r.Route("/review", func(r chi.Router) {
			r.Get("/", s.currentReview)
			r.Post("/", s.openReview)
			r.Patch("/", s.updateReview)
			r.Delete("/", s.closeReview)
			r.Post("/refresh", s.refreshReview)
			r.Get("/preview", s.previewReview)
			r.Post("/post", s.postReview)
		})
	})

	s.router = r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				ev := log.Debug()
				if ww.Status() >= http.StatusInternalServerError {
					ev = log.Warn()
				}
				ev.Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
