// Package server is the composition root: it builds the API client, the
// stores and the handlers, wires them to routes, and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → session store (sqlite or redis)    repository.KeyValueStore
//	  → apiclient.Client                    one per process, shared by every store
//	  → SessionService, MemberDirectory, EventCatalog, AttendanceLedger
//	  → Refresher                           keeps the stores in step with the session
//	  → handlers                            read the stores, never the API
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/ssc-portal/internal/apiclient"
	"github.com/sakif/ssc-portal/internal/auth"
	"github.com/sakif/ssc-portal/internal/config"
	"github.com/sakif/ssc-portal/internal/handler"
	"github.com/sakif/ssc-portal/internal/middleware"
	"github.com/sakif/ssc-portal/internal/repository"
	redisRepo "github.com/sakif/ssc-portal/internal/repository/redis"
	sqliteRepo "github.com/sakif/ssc-portal/internal/repository/sqlite"
	"github.com/sakif/ssc-portal/internal/service"
)

// SessionStore is a durable key-value store the server owns and closes.
type SessionStore interface {
	repository.KeyValueStore
	Ping() error
	Close() error
}

// Server holds the router and everything it must shut down.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	store     SessionStore
	session   *service.SessionService
	refresher *service.Refresher
}

// New opens the configured session store and builds the server on it.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

func openStore(cfg config.Config) (SessionStore, error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		store := redisRepo.New(cfg.RedisAddr, cfg.RedisPrefix)
		if err := store.Ping(); err != nil {
			store.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return store, nil
	default:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}
}

// NewWithStore builds the server on an already open store. The server takes
// ownership of store and closes it on shutdown.
func NewWithStore(cfg config.Config, store SessionStore, logger *slog.Logger) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, logger, apiclient.NewMetrics(registry))

	session := service.NewSessionService(client, store, logger)
	members := service.NewMemberDirectory(client, session, logger)
	events := service.NewEventCatalog(client, session, logger)
	attendance := service.NewAttendanceLedger(client, session, logger)

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		store:     store,
		session:   session,
		refresher: service.NewRefresher(session, logger, members, events, attendance),
	}

	renderer, err := handler.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s.setupRoutes(routeDeps{
		registry:   registry,
		render:     renderer,
		members:    members,
		events:     events,
		attendance: attendance,
	})
	return s, nil
}

type routeDeps struct {
	registry   *prometheus.Registry
	render     *handler.Renderer
	members    *service.MemberDirectory
	events     *service.EventCatalog
	attendance *service.AttendanceLedger
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz, /metrics                  public, no CSRF
//	GET  /login   POST /login, /login/password   public, CSRF
//	everything else                          session required, CSRF
//	  admin:      member create/delete, roll call, event writes, event roster
//	  superadmin: daily and event records on the attendance detail page
//
// "/" and unknown paths go to the dashboard.
func (s *Server) setupRoutes(d routeDeps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders)

	health := handler.NewHealthHandler(s.session, s.store, s.config.APIBaseURL)
	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	authH := handler.NewAuthHandler(s.session, d.render, s.logger)
	dashboardH := handler.NewDashboardHandler(d.members, d.events, d.render)
	memberH := handler.NewMemberHandler(d.members, d.render, s.logger)
	eventH := handler.NewEventHandler(d.events, d.members, d.attendance, d.render, s.logger)
	attendanceH := handler.NewAttendanceHandler(d.members, d.events, d.attendance, d.render, s.logger)

	toDashboard := func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(middleware.CSRFOptions{
			Key:            s.config.CSRFKey,
			Secure:         s.config.CSRFSecure,
			TrustedOrigins: s.config.CSRFTrustedOrigins,
		}))

		r.With(auth.RedirectIfAuthenticated(s.session, "/dashboard")).Get("/login", authH.HandleLoginPage)
		r.Post("/login", authH.HandleLogin)
		r.Post("/login/password", authH.HandleChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(s.session))

			r.Get("/", toDashboard)
			r.Post("/logout", authH.HandleLogout)
			r.Get("/dashboard", dashboardH.HandleDashboard)
			r.Get("/leaderboard", dashboardH.HandleLeaderboard)

			r.Get("/members", memberH.HandleList)
			r.Get("/members/{id}", memberH.HandleShow)
			r.Post("/members/{id}", memberH.HandleUpdate) // admin or the member themself

			r.Get("/attendance", attendanceH.HandleOverview)
			r.Get("/attendance/{id}", attendanceH.HandleMember)

			r.Get("/events", eventH.HandleList)
			r.Get("/events/{id}", eventH.HandleShow)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(s.session))

				r.Post("/members", memberH.HandleCreate)
				r.Post("/members/{id}/delete", memberH.HandleDelete)

				r.Post("/attendance/roll-call", attendanceH.HandleRollCall)

				r.Post("/events", eventH.HandleCreate)
				r.Post("/events/{id}", eventH.HandleUpdate)
				r.Post("/events/{id}/delete", eventH.HandleDelete)
				r.Post("/events/{id}/assign", eventH.HandleAssign)
				r.Post("/events/{id}/roster/{recordID}/toggle", eventH.HandleToggleRoster)
				r.Post("/events/{id}/roster/{recordID}/delete", eventH.HandleRemoveRoster)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSuperAdmin(s.session))

				r.Post("/attendance/{id}/daily", attendanceH.HandleAddDay)
				r.Post("/attendance/{id}/events", attendanceH.HandleAddEvent)
				r.Post("/attendance/daily/{recordID}/toggle", attendanceH.HandleToggleDay)
				r.Post("/attendance/daily/{recordID}/delete", attendanceH.HandleDeleteDay)
				r.Post("/attendance/event/{recordID}/toggle", attendanceH.HandleToggleEvent)
				r.Post("/attendance/event/{recordID}/delete", attendanceH.HandleDeleteEvent)
			})
		})
	})

	s.router.NotFound(toDashboard)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Session returns the process-wide session.
func (s *Server) Session() *service.SessionService {
	return s.session
}

// Start restores the persisted session, starts the refresh schedule and
// serves until SIGINT or SIGTERM, then shuts down in order:
//  1. stop accepting connections and drain in-flight requests
//  2. stop the refresh schedule
//  3. close the session store
func (s *Server) Start() error {
	defer s.store.Close()

	bootCtx, cancel := context.WithTimeout(context.Background(), s.config.APITimeout)
	state := s.session.Bootstrap(bootCtx)
	cancel()
	s.logger.Info("session restored", slog.String("state", state.String()))

	if err := s.refresher.Start(s.config.RefreshSchedule); err != nil {
		return fmt.Errorf("PORTAL_REFRESH_SCHEDULE: %w", err)
	}
	defer s.refresher.Stop()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*s.config.APITimeout + 15*time.Second, // a page may wait on two API calls
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("host", s.config.Host),
			slog.Int("port", s.config.Port),
			slog.String("url", "http://"+s.config.Addr()),
			slog.String("api", s.config.APIBaseURL),
			slog.String("session_backend", s.config.SessionBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
