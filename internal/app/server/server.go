package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/performance"
	"appraisal/internal/domain/reports"
	"appraisal/internal/platform/config"
	"appraisal/internal/platform/db"
	"appraisal/internal/platform/email"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/platform/metrics"
	audithandler "appraisal/internal/transport/http/handlers/audit"
	authhandler "appraisal/internal/transport/http/handlers/auth"
	notificationshandler "appraisal/internal/transport/http/handlers/notifications"
	performancehandler "appraisal/internal/transport/http/handlers/performance"
	reportshandler "appraisal/internal/transport/http/handlers/reports"
	"appraisal/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Log    *zap.Logger

	Performance *performance.Service
	Jobs        *jobs.Service

	stopJobs context.CancelFunc
}

// New connects to the database, prepares the schema when configured to, and
// assembles the router. Background jobs start immediately; Close stops them.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	enforcer, err := auth.NewEnforcer()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}

	jobService := jobs.New(pool, cfg.ReminderInterval, log)
	notifier := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom, log)
	perfService := performance.NewService(performance.NewStore(pool), log,
		performance.WithNotifier(notifier),
		performance.WithDispatcher(jobService),
	)
	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, log)
	auditService := audit.New(pool)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if collector != nil {
		router.Handle("/metrics", collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, cfg.RateLimitPerMinute).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
			performancehandler.NewHandler(perfService, enforcer, auditService, collector, middleware.NewIdempotencyStore(pool)).RegisterRoutes(r)
			notificationshandler.NewHandler(notifier, enforcer).RegisterRoutes(r)
			audithandler.NewHandler(auditService, enforcer).RegisterRoutes(r)
			reportshandler.NewHandler(reports.NewService(reports.NewStore(pool)), enforcer).RegisterRoutes(r)
		})
	})

	jobCtx, stopJobs := context.WithCancel(context.Background())
	jobService.Start(jobCtx, perfService)

	return &App{
		Config:      cfg,
		DB:          pool,
		Router:      router,
		Log:         log,
		Performance: perfService,
		Jobs:        jobService,
		stopJobs:    stopJobs,
	}, nil
}

func (a *App) Close() {
	if a.stopJobs != nil {
		a.stopJobs()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("appraisal server listening", zap.String("addr", a.Config.Addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
