// Package server is the composition root: it opens the database and cache,
// builds services and handlers, and mounts them on a chi router.
//
// Dependency flow:
//
//	config → sqlite.DB ─┬→ services → handlers → routes
//	         cache ─────┘
//	         session.Hub → auth + session handlers
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/cache"
	"github.com/sakif/cert-tracker/internal/config"
	"github.com/sakif/cert-tracker/internal/handler"
	"github.com/sakif/cert-tracker/internal/middleware"
	sqliteRepo "github.com/sakif/cert-tracker/internal/repository/sqlite"
	"github.com/sakif/cert-tracker/internal/service"
	"github.com/sakif/cert-tracker/internal/session"
)

const shutdownTimeout = 30 * time.Second

// Server owns every long-lived resource. Run closes them on the way out.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger

	db     *sqliteRepo.DB
	cache  cache.Cache
	hub    *session.Hub
	tokens *auth.TokenService
	google handler.GoogleAuthenticator
}

// Option customises a Server before its routes are built.
type Option func(*Server)

// WithGoogleAuthenticator replaces the Google OAuth provider, e.g. with a
// stub in tests.
func WithGoogleAuthenticator(g handler.GoogleAuthenticator) Option {
	return func(s *Server) { s.google = g }
}

// New opens the database at cfg.Database.Path, connects the cache when
// configured and wires all routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		hub:    session.NewHub(),
		tokens: tokens,
		cache: cache.New(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger),
		google: auth.NewGoogleProvider(
			cfg.Auth.GoogleClientID,
			cfg.Auth.GoogleClientSecret,
			cfg.Auth.GoogleCallbackURL,
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes mounts every route.
//
//	GET  /healthz, /metrics
//	     /auth/google/{login,callback}, POST /auth/logout
//	     /api/certifications...          public catalog and public view
//	     /api/public/projects/{id}/tasks public tasks of a public project
//	     /api/activities/{id}/like       optional auth
//	     everything else under /api      requires a session
//
// Mutating /api requests pass through the per-client rate limiter.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Metrics)

	identitySvc := service.NewIdentityService(s.db, s.logger)
	authSvc := service.NewAuthService(identitySvc, s.tokens, s.logger)
	catalogSvc := service.NewCatalogService(s.db, s.cache, s.logger)
	projectSvc := service.NewProjectService(s.db, s.db, s.logger)
	taskSvc := service.NewTaskService(s.db, s.db, s.logger)
	activitySvc := service.NewActivityService(s.db, s.logger)
	publicSvc := service.NewPublicService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(s.google, authSvc, identitySvc, s.hub, handler.CookieOptions{
		TTL:    s.tokens.TTL(),
		Secure: s.cfg.Auth.SecureCookies,
	}, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalogSvc, publicSvc, s.logger)
	projectHandler := handler.NewProjectHandler(projectSvc, s.logger)
	taskHandler := handler.NewTaskHandler(taskSvc, s.logger)
	activityHandler := handler.NewActivityHandler(activitySvc, s.logger)
	sessionHandler := handler.NewSessionHandler(s.hub, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	limiter := middleware.NewRateLimiter(s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst)
	requireAuth := auth.RequireAuth(s.tokens)
	optionalAuth := auth.OptionalAuth(s.tokens)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", middleware.MetricsHandler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.With(optionalAuth).Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(limiter.MutationsOnly)

		r.Get("/certifications", catalogHandler.HandleList)
		r.Get("/certifications/{id}", catalogHandler.HandleGet)
		r.Get("/certifications/{id}/projects", catalogHandler.HandlePublicProjects)
		r.Get("/public/projects/{id}/tasks", catalogHandler.HandlePublicTasks)

		r.With(optionalAuth).Post("/activities/{id}/like", activityHandler.HandleToggleLike)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Get("/session/events", sessionHandler.HandleEvents)

			r.Get("/projects", projectHandler.HandleList)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Patch("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)
			r.Post("/projects/{id}/progress", projectHandler.HandleRecompute)

			r.Get("/projects/{id}/tasks", taskHandler.HandleList)
			r.Post("/projects/{id}/tasks", taskHandler.HandleCreate)
			r.Put("/projects/{id}/tasks/order", taskHandler.HandleReorder)

			r.Get("/tasks/{id}", taskHandler.HandleGet)
			r.Patch("/tasks/{id}", taskHandler.HandleUpdate)
			r.Delete("/tasks/{id}", taskHandler.HandleDelete)
			r.Post("/tasks/{id}/completion", taskHandler.HandleToggleCompletion)
			r.Post("/tasks/{id}/publication", taskHandler.HandleTogglePublic)

			r.Get("/activities", activityHandler.HandleList)
			r.Post("/activities", activityHandler.HandleCreate)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests for
// up to 30 seconds and releases every resource.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("database", s.cfg.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		// Session streams are hijacked connections that Shutdown does not
		// wait for; closing the hub ends them.
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}

// Close releases the hub, cache and database. Safe to call after Run.
func (s *Server) Close() error {
	s.hub.Close()
	var errs []error
	if c, ok := s.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}
