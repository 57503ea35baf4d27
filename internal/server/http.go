// Package server assembles the HTTP server: router, middleware chain, and
// route-level authorization. Role requirements are declared here, next to the
// routes they protect, so the full access table is visible in one place.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"cloudpad-admin/backend/internal/account/domain"
	accounthandler "cloudpad-admin/backend/internal/account/handler"
	authhandler "cloudpad-admin/backend/internal/auth/handler"
	"cloudpad-admin/backend/internal/security"
	"cloudpad-admin/backend/internal/server/middleware"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the dependencies required by the HTTP server.
type Deps struct {
	Addr     string
	Logger   *slog.Logger
	Tokens   *security.TokenProvider
	Auth     *authhandler.Handler
	Accounts *accounthandler.Handler
	DB       Pinger
	Tracer   trace.Tracer
	Meter    metric.Meter
}

// Server is the HTTP server. Create with New, start with Start, stop with
// Shutdown.
type Server struct {
	deps Deps
	log  *slog.Logger
	srv  *http.Server
}

// New returns a Server ready to Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("server: logger is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("server: token provider is required")
	}
	if deps.Auth == nil || deps.Accounts == nil {
		return nil, errors.New("server: handlers are required")
	}
	return &Server{deps: deps, log: deps.Logger}, nil
}

// Router builds the full route table. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(s.log))
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.BodySizeLimit)
	if s.deps.Tracer != nil && s.deps.Meter != nil {
		r.Use(middleware.Telemetry(s.deps.Tracer, s.deps.Meter))
	}

	requireAccess := middleware.RequireAccess(s.deps.Tokens)
	requireRefresh := middleware.RequireRefresh(s.deps.Tokens)

	r.Get("/healthz", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.deps.Auth.Login)
		r.With(requireAccess).Get("/logout", s.deps.Auth.Logout)
		r.With(requireRefresh).Get("/refresh", s.deps.Auth.Refresh)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/register", s.deps.Accounts.Register)

		r.Group(func(r chi.Router) {
			r.Use(requireAccess)
			r.With(middleware.RequireRoles(domain.RoleSuperAdmin)).
				Get("/all-admins", s.deps.Accounts.List)
			r.Post("/create-admin", s.deps.Accounts.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.deps.Accounts.Get)
				r.Patch("/", s.deps.Accounts.Update)
				r.Delete("/", s.deps.Accounts.Delete)
				r.With(middleware.RequireRoles(domain.RoleSuperAdmin)).
					Get("/audit-logs", s.deps.Accounts.AuditLogs)
			})
		})
	})

	return r
}

// Start begins serving in a background goroutine. Returns immediately; a
// listen failure is logged and surfaces on the first request instead.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.deps.Addr,
		Handler:           s.Router(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", "error", err)
		}
	}()
}

// Shutdown drains in-flight requests, waiting up to shutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}
