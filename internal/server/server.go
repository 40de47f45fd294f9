package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
)

// multipartSlack covers form boundaries and part headers on top of the file.
const multipartSlack = 64 << 10

// Config holds server settings.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	// RateLimitRPS <= 0 disables upload rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	Profile        pipeline.Options
}

// Server exposes the profiler over HTTP. One Session holds the current result
// shared by all clients.
type Server struct {
	cfg     Config
	log     *slog.Logger
	session *pipeline.Session
	metrics *Metrics
	router  chi.Router
}

// New wires the router, metrics and session.
func New(cfg Config, log *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.With(slog.String("component", "server")),
		session: &pipeline.Session{},
		metrics: newMetrics(),
	}
	s.cfg.Profile.MaxBytes = cfg.MaxUploadBytes
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/profile", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.With(s.limiter()).Post("/", s.upload)
		r.Get("/current", s.current)
		r.Delete("/current", s.reset)
	})
	return r
}

func (s *Server) limiter() func(http.Handler) http.Handler {
	if s.cfg.RateLimitRPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := s.cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	rl := &rateLimiter{
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimitRPS), burst),
		log:     s.log,
		onLimit: func(w http.ResponseWriter, r *http.Request) {
			s.metrics.profiles.WithLabelValues("rate_limited").Inc()
			w.Header().Set("Retry-After", "1")
			s.respondError(w, r, newProblem(http.StatusTooManyRequests, TypeRateLimit, "Too Many Requests", "Upload rate limit exceeded", r.URL.Path))
		},
	}
	return rl.Handler
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":      "ok",
		"has_current": s.session.Current() != nil,
	})
}

// upload handles POST /api/v1/profile with the dataset in multipart field "file".
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartSlack)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, newProblem(http.StatusBadRequest, TypeBadRequest, "Bad Request", "expected multipart/form-data upload", r.URL.Path))
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.respondError(w, r, newProblem(http.StatusBadRequest, TypeBadRequest, "Bad Request", `missing form field "file"`, r.URL.Path))
			return
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.fail(w, r, err, 0)
				return
			}
			s.respondError(w, r, newProblem(http.StatusBadRequest, TypeBadRequest, "Bad Request", "read multipart: "+err.Error(), r.URL.Path))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		start := time.Now()
		name := part.FileName()
		out, err := s.session.RunReader(r.Context(), name, part, s.cfg.Profile)
		part.Close()
		elapsed := time.Since(start).Seconds()
		if err != nil {
			s.fail(w, r, err, elapsed)
			return
		}
		s.metrics.observe(out, nil, elapsed)
		s.log.InfoContext(r.Context(), "profiled upload",
			"file", out.Data.FileName,
			"rows", out.Data.RowCount,
			"charts", len(out.Charts),
			"run_id", out.RunID,
		)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, out)
		return
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, elapsed float64) {
	s.metrics.observe(nil, err, elapsed)
	p := problemFor(err, r)
	if p.Status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "profile failed", "error", err)
	} else {
		s.log.WarnContext(r.Context(), "profile rejected", "error", err, "status", p.Status)
	}
	s.respondError(w, r, p)
}

func (s *Server) current(w http.ResponseWriter, r *http.Request) {
	out := s.session.Current()
	if out == nil {
		s.respondError(w, r, newProblem(http.StatusNotFound, TypeNotFound, "Not Found", "no dataset has been profiled yet", r.URL.Path))
		return
	}
	render.JSON(w, r, out)
}

// reset discards the current result, like starting over with new data.
func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	s.log.InfoContext(r.Context(), "session reset")
	render.NoContent(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
