package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cappsac/capps-site/cmd/mainconfig"
	"github.com/cappsac/capps-site/internal/app/bootstrap"
	appconfig "github.com/cappsac/capps-site/internal/config"
	"github.com/cappsac/capps-site/internal/content"
	"github.com/cappsac/capps-site/internal/observability/metrics"
	"github.com/cappsac/capps-site/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel).Component("intake-worker")

	if cfg.UseMemoryQueue || cfg.IntakeQueueURL == "" {
		logger.Error("intake worker requires USE_MEMORY_QUEUE=false and INTAKE_QUEUE_URL")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.SiteTimezone)
	if err != nil {
		logger.Error("failed to load site timezone", "timezone", cfg.SiteTimezone, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	pool, err := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set; duplicate deliveries are only detected within this process")
	}
	_, deduper := bootstrap.BuildIntakeStorage(pool)

	queue, _, err := bootstrap.BuildIntakeQueue(cfg, &awsConfig)
	if err != nil {
		logger.Error("failed to build intake queue", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	intakeMetrics := metrics.NewIntakeMetrics(reg)

	deps := bootstrap.WorkerDeps{
		Queue:    queue,
		Notifier: bootstrap.BuildNotifier(cfg, &awsConfig, content.MustDefault(), loc, logger),
		Deduper:  deduper,
		Metrics:  intakeMetrics,
	}
	if store := bootstrap.BuildArchiveStore(cfg, &awsConfig, logger); store != nil {
		deps.Archiver = store
	}
	worker := bootstrap.BuildWorker(cfg, deps, logger)
	worker.Start(ctx)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down intake worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()
	_ = metricsSrv.Shutdown(doneCtx)

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("intake worker stopped")
	case <-doneCtx.Done():
		logger.Error("intake worker shutdown timed out", "error", doneCtx.Err())
	}
}
