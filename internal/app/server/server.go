package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/settings"
	"holidayhub/internal/domain/users"
	"holidayhub/internal/platform/config"
	"holidayhub/internal/platform/crypto"
	"holidayhub/internal/platform/db"
	"holidayhub/internal/platform/email"
	"holidayhub/internal/platform/google"
	"holidayhub/internal/platform/jobs"
	"holidayhub/internal/platform/metrics"
	"holidayhub/internal/platform/store"
	"holidayhub/internal/platform/store/memory"
	"holidayhub/internal/platform/store/postgres"
	"holidayhub/internal/platform/store/sqlite"
	audithandler "holidayhub/internal/transport/http/handlers/audit"
	authhandler "holidayhub/internal/transport/http/handlers/auth"
	leavehandler "holidayhub/internal/transport/http/handlers/leave"
	settingshandler "holidayhub/internal/transport/http/handlers/settings"
	userhandler "holidayhub/internal/transport/http/handlers/users"
	"holidayhub/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	Store    store.Backend
	Jobs     *jobs.Service
	Metrics  *metrics.Collector
	Leave    *leave.Service
	Users    *users.Service
	Settings *settings.Service
	Audit    *audit.Service
	Router   http.Handler

	ready   func(context.Context) error
	closers []func()
}

// Open connects the configured store, runs migrations and builds the app.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	backend, ready, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app, err := Build(cfg, backend, ready)
	if err != nil {
		closer()
		return nil, err
	}
	app.closers = append(app.closers, closer)
	return app, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Backend, func(context.Context) error, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, postgres.Migrations()); err != nil {
				pool.Close()
				return nil, nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return postgres.New(pool), pool.Ping, pool.Close, nil
	case config.StoreSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.MigrateSQLite(ctx, conn, sqlite.Migrations()); err != nil {
				_ = conn.Close()
				return nil, nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return sqlite.New(conn), conn.PingContext, func() { _ = conn.Close() }, nil
	case config.StoreMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Build wires services and the router over an already open store.
func Build(cfg config.Config, backend store.Backend, ready func(context.Context) error) (*App, error) {
	sealer, err := crypto.New(cfg.DataEncryptionKey, "google-token")
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	jobsSvc := jobs.New(cfg.JobQueueSize, cfg.JobWorkers, cfg.SideEffectTimeout)
	jobsSvc.OnDone = collector.JobDone

	settingsSvc := settings.New(backend, sealer)
	usersSvc := users.NewService(backend, nil)
	auditSvc := audit.New(backend)

	var notifier leave.Notifier
	var calendar leave.Calendar
	var tokens *google.TokenSource
	if cfg.GoogleEnabled() {
		tokens = google.NewTokenSource(cfg.GoogleClientID, cfg.GoogleClientSecret, settingsSvc)
		calendar = google.NewCalendar(tokens, settingsSvc, cfg.CalendarID)
	}
	switch cfg.Notifier {
	case config.NotifierSMTP:
		notifier = email.New(cfg)
	case config.NotifierGmail:
		if tokens != nil {
			notifier = google.NewGmail(tokens, cfg.EmailFrom)
		}
	}
	if notifier != nil {
		notifier = email.Gated(notifier, func() bool {
			return settingsSvc.Current().EmailNotificationsEnabled
		})
	}

	leaveSvc := leave.NewService(backend, usersSvc, notifier, calendar, jobsSvc)
	leaveSvc.Metrics = collector
	usersSvc.Provisioner = leaveSvc

	jobsSvc.Every("provision_credits", cfg.ProvisionInterval, usersSvc.ProvisionCurrentYear)
	jobsSvc.Every("settings_refresh", time.Minute, settingsSvc.Refresh)

	app := &App{
		Config:   cfg,
		Store:    backend,
		Jobs:     jobsSvc,
		Metrics:  collector,
		Leave:    leaveSvc,
		Users:    usersSvc,
		Settings: settingsSvc,
		Audit:    auditSvc,
		ready:    ready,
	}
	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, a.Users))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.ready(ctx); err != nil {
				http.Error(w, "store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", a.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		})
		authhandler.NewHandler(cfg.Environment == "production").RegisterRoutes(r)
		leavehandler.NewHandler(a.Leave, a.Audit).RegisterRoutes(r)
		userhandler.NewHandler(a.Users, a.Audit).RegisterRoutes(r)
		settingshandler.NewHandler(a.Settings, a.Audit).RegisterRoutes(r)
		audithandler.NewHandler(a.Audit).RegisterRoutes(r)
	})
	return router
}

// Start loads persisted settings and starts background jobs.
func (a *App) Start(ctx context.Context) error {
	if err := a.Settings.Refresh(ctx); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	a.Jobs.Start(ctx)
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(NewLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Open(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	jobsCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	if err := app.Start(jobsCtx); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("holidayhub listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "err", err)
	}

	done := make(chan struct{})
	go func() {
		app.Jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("pending side effects abandoned")
	}
	cancelJobs()
}

func NewLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
