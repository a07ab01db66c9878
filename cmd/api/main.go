package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cappsac/capps-site/cmd/mainconfig"
	"github.com/cappsac/capps-site/internal/api/router"
	"github.com/cappsac/capps-site/internal/app/bootstrap"
	"github.com/cappsac/capps-site/internal/booking"
	appconfig "github.com/cappsac/capps-site/internal/config"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/content"
	httpmiddleware "github.com/cappsac/capps-site/internal/http/middleware"
	"github.com/cappsac/capps-site/internal/intake"
	"github.com/cappsac/capps-site/internal/observability/metrics"
	"github.com/cappsac/capps-site/internal/web"
	"github.com/cappsac/capps-site/pkg/logging"
)

const limiterSweepInterval = time.Minute

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting capps-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.SiteTimezone)
	if err != nil {
		return fmt.Errorf("load site timezone %q: %w", cfg.SiteTimezone, err)
	}
	catalog := content.MustDefault()
	schema := booking.NewSchema(booking.SchemaConfig{TimeSlots: catalog.TimeSlots, Location: loc})

	metricsHandler, wizardMetrics, intakeMetrics := setupMetrics()

	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return err
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pool, err := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set; submissions are kept in memory")
	}

	sessions := bootstrap.BuildSessionManager(ctx, cfg, redisClient, schema, logger)
	repo, deduper := bootstrap.BuildIntakeStorage(pool)
	queue, inProcess, err := bootstrap.BuildIntakeQueue(cfg, awsCfg)
	if err != nil {
		return err
	}

	service := intake.NewService(repo, logger,
		intake.WithPublisher(intake.NewPublisher(queue, logger)),
		intake.WithThrottle(bootstrap.BuildThrottle(cfg, redisClient, logger)),
		intake.WithMetrics(intakeMetrics),
	)

	// The memory queue only reaches a worker in this process.
	stopWorker := func() {}
	if inProcess {
		deps := bootstrap.WorkerDeps{
			Queue:    queue,
			Notifier: bootstrap.BuildNotifier(cfg, awsCfg, catalog, loc, logger),
			Deduper:  deduper,
			Metrics:  intakeMetrics,
		}
		if store := bootstrap.BuildArchiveStore(cfg, awsCfg, logger); store != nil {
			deps.Archiver = store
		}
		stopWorker = startWorker(ctx, bootstrap.BuildWorker(cfg, deps, logger))
		defer stopWorker()
		logger.Info("intake worker running in process")
	}

	site, err := web.NewHandler(web.Config{
		Catalog:      catalog,
		Schema:       schema,
		Sessions:     sessions,
		Contact:      contact.NewForm(catalog.ContactSubjects, schema.Now),
		Intake:       service,
		Metrics:      wizardMetrics,
		Logger:       logger,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	})
	if err != nil {
		return err
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.FormRatePerSecond, cfg.FormRateBurst)
	go limiter.Run(ctx, limiterSweepInterval)

	healthChecks := map[string]router.HealthCheck{}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if pool != nil {
		healthChecks["postgres"] = pool.Ping
	}

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin endpoints disabled")
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:               logger,
		Site:                 site,
		Admin:                web.NewAdminHandler(service, logger),
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       metricsHandler,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		FormLimiter:          limiter,
		APIRequestsPerMinute: cfg.APIRatePerMinute,
		HealthChecks:         healthChecks,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	stopWorker()
	logger.Info("server stopped")
	return nil
}

// loadAWS returns nil when no AWS-backed component is configured.
func loadAWS(ctx context.Context, cfg *appconfig.Config) (*aws.Config, error) {
	if !cfg.NeedsAWS() {
		return nil, nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &awsCfg, nil
}

// startWorker runs w past the cancellation of ctx so that events from
// requests still draining after a signal are handled. The returned func stops
// the worker and waits for it.
func startWorker(ctx context.Context, w *intake.Worker) func() {
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.Start(workerCtx)
	return func() {
		cancel()
		w.Wait()
	}
}

func setupMetrics() (http.Handler, *metrics.WizardMetrics, *metrics.IntakeMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return handler, metrics.NewWizardMetrics(reg), metrics.NewIntakeMetrics(reg)
}
