// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/config"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	"github.com/taibuivan/yomira-studio/internal/platform/tracing"
	"github.com/taibuivan/yomira-studio/internal/users/account"
	"github.com/taibuivan/yomira-studio/internal/users/auth"
	"github.com/taibuivan/yomira-studio/internal/workflow/assignment"
	"github.com/taibuivan/yomira-studio/internal/workflow/permission"
	"github.com/taibuivan/yomira-studio/internal/workflow/upload"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. It answers 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. It answers 200 when Postgres and Redis respond.
	Readiness http.HandlerFunc

	// ClientConfig serves the front-end bootstrap behind the origin allow-list.
	ClientConfig http.HandlerFunc

	// Metrics exposes Prometheus metrics. Optional.
	Metrics http.Handler

	Auth        *auth.Handler
	Users       *account.Handler
	Permissions *permission.Handler
	Mangas      *manga.Handler
	Assignments *assignment.Handler
	Uploads     *upload.Handler

	// Events streams the live change feed (SSE).
	Events http.Handler
}

// Options carries the shared middleware state owned by the runtime.
type Options struct {
	Verifier    middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter

	// Instrument wraps every request with metrics. Optional.
	Instrument func(http.Handler) http.Handler
}

// ClientConfigPaths serve the same bootstrap. /firebase-config is the path
// older front-end builds still request.
var ClientConfigPaths = []string{"/client-config", "/firebase-config"}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, options Options, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(tracing.Middleware)
	r.Use(middleware.StructuredLogger(log))
	if options.Instrument != nil {
		r.Use(options.Instrument)
	}
	if options.RateLimiter != nil {
		r.Use(options.RateLimiter.Middleware)
	}
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(options.Verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	MountInfrastructure(r, h)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {

		// The change feed is long-lived and stays outside the request timeout.
		if h.Events != nil {
			api.With(middleware.RequireAuth).Method(http.MethodGet, "/events", h.Events)
		}

		api.Group(func(bounded chi.Router) {
			bounded.Use(chimw.Timeout(constants.GlobalRequestTimeout))

			bounded.Mount("/auth", h.Auth.Routes())
			bounded.Mount("/users", h.Users.Routes())
			bounded.Mount("/permissions", h.Permissions.Routes())
			bounded.Mount("/mangas", h.Mangas.Routes())
			bounded.Mount("/assignments", h.Assignments.Routes())
			bounded.Mount("/shared", h.Assignments.SharedRoutes())
			bounded.Mount("/uploads", h.Uploads.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler returns the root router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MountInfrastructure registers the unauthenticated probes used by container
// orchestration and the front end.
func MountInfrastructure(r chi.Router, h Handlers) {
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	for _, path := range ClientConfigPaths {
		r.Get(path, h.ClientConfig)
	}
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
