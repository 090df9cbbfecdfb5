package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/policy"
	"leadtrack/internal/domain/reports"
	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/platform/config"
	"leadtrack/internal/platform/db"
	"leadtrack/internal/platform/metrics"
	"leadtrack/internal/storage/memory"
	"leadtrack/internal/storage/postgres"
	"leadtrack/internal/storage/sqlite"
	audithandler "leadtrack/internal/transport/http/handlers/audit"
	employeehandler "leadtrack/internal/transport/http/handlers/employees"
	eventhandler "leadtrack/internal/transport/http/handlers/events"
	profilehandler "leadtrack/internal/transport/http/handlers/profiles"
	reportshandler "leadtrack/internal/transport/http/handlers/reports"
	targethandler "leadtrack/internal/transport/http/handlers/targets"
	"leadtrack/internal/transport/http/api"
	"leadtrack/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	Router   http.Handler
	Tracking *tracking.Service
	Metrics  *metrics.Collector

	pool   *pgxpool.Pool
	sqlite *sql.DB
}

type backend struct {
	store       tracking.Store
	auditSink   audit.Sink
	idempotency middleware.Idempotency
	pool        *pgxpool.Pool
	sqlite      *sql.DB
}

// New builds the storage backend, services and router described by cfg.
// Close releases database handles.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := policy.LoadTable(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, pool: be.pool, sqlite: be.sqlite}

	collector := metrics.New()
	auditSvc := audit.New(be.auditSink)
	pol := policy.New(table)
	trackingSvc := tracking.NewService(be.store, pol, tracking.WithManagerScope(tracking.ManagerScope(cfg.ManagerTargetScope)))
	reportsSvc := reports.NewService(trackingSvc, pol)
	app.Tracking = trackingSvc
	app.Metrics = collector

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.ping(ctx); err != nil {
			slog.Warn("readiness check failed", "err", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		employeehandler.NewHandler(trackingSvc, table, auditSvc).RegisterRoutes(r)
		targethandler.NewHandler(trackingSvc, table, auditSvc, collector).RegisterRoutes(r)
		eventhandler.NewHandler(trackingSvc, table, auditSvc, collector, be.idempotency).RegisterRoutes(r)
		profilehandler.NewHandler(trackingSvc, table, auditSvc, collector).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, table, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, table).RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return backend{}, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return backend{}, fmt.Errorf("migrations: %w", err)
			}
		}
		return backend{
			store:       postgres.New(pool),
			auditSink:   audit.PostgresSink{DB: pool},
			idempotency: middleware.NewIdempotencyStore(pool),
			pool:        pool,
		}, nil
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		if cfg.RunMigrations {
			if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
				sqlDB.Close()
				return backend{}, fmt.Errorf("migrations: %w", err)
			}
		}
		return backend{
			store:       sqlite.New(sqlDB),
			auditSink:   audit.LogSink{Logger: slog.Default()},
			idempotency: middleware.NewMemoryIdempotency(),
			sqlite:      sqlDB,
		}, nil
	default:
		return backend{
			store:       memory.New(),
			auditSink:   audit.NewMemorySink(),
			idempotency: middleware.NewMemoryIdempotency(),
		}, nil
	}
}

func (a *App) ping(ctx context.Context) error {
	switch {
	case a.pool != nil:
		return a.pool.Ping(ctx)
	case a.sqlite != nil:
		return a.sqlite.PingContext(ctx)
	}
	return nil
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			slog.Warn("sqlite close failed", "err", err)
		}
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("leadtrack server listening", "addr", cfg.Addr, "storage", cfg.StorageDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// OpenTracking opens the configured store (running migrations when
// enabled) and returns a tracking service over it for CLI commands.
func OpenTracking(ctx context.Context, cfg config.Config) (*tracking.Service, func(), error) {
	table, err := policy.LoadTable(cfg.PolicyFile)
	if err != nil {
		return nil, nil, err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	app := &App{pool: be.pool, sqlite: be.sqlite}
	svc := tracking.NewService(be.store, policy.New(table), tracking.WithManagerScope(tracking.ManagerScope(cfg.ManagerTargetScope)))
	return svc, app.Close, nil
}
