package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cappsac/capps-site/internal/booking"
	appconfig "github.com/cappsac/capps-site/internal/config"
	"github.com/cappsac/capps-site/internal/events"
	"github.com/cappsac/capps-site/internal/intake"
	"github.com/cappsac/capps-site/internal/observability/metrics"
	"github.com/cappsac/capps-site/internal/session"
	"github.com/cappsac/capps-site/pkg/logging"
)

const (
	memoryQueueBuffer  = 256
	sessionSweepPeriod = 5 * time.Minute
)

// BuildSessionManager picks the wizard session store. Redis is used when
// configured and reachable; otherwise sessions live in process and a sweeper
// runs until ctx is done.
func BuildSessionManager(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, schema *booking.Schema, logger *logging.Logger) *session.Manager {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UsesRedisSessions() {
		if redisClient != nil {
			logger.Info("wizard sessions stored in redis", "ttl", cfg.SessionTTL)
			return session.NewManager(session.NewRedisStore(redisClient, cfg.SessionTTL), schema, logger)
		}
		logger.Warn("redis sessions requested but redis unavailable; using memory sessions")
	}

	store := session.NewMemoryStore(cfg.SessionTTL)
	go func() {
		ticker := time.NewTicker(sessionSweepPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				store.Sweep()
			}
		}
	}()
	return session.NewManager(store, schema, logger)
}

// BuildIntakeStorage returns the submission repository and event deduper,
// backed by Postgres when a pool is given.
func BuildIntakeStorage(pool *pgxpool.Pool) (intake.Repository, events.Deduper) {
	if pool == nil {
		return intake.NewMemoryRepository(), events.NewMemoryDeduper()
	}
	return intake.NewPostgresRepository(pool), events.NewProcessedStore(pool)
}

// BuildIntakeQueue returns the SQS queue when configured, or an in-process
// queue. inProcess reports whether the caller must run the worker itself.
func BuildIntakeQueue(cfg *appconfig.Config, awsCfg *aws.Config) (queue intake.Queue, inProcess bool, err error) {
	if cfg.UseMemoryQueue || cfg.IntakeQueueURL == "" {
		return intake.NewMemoryQueue(memoryQueueBuffer), true, nil
	}
	if awsCfg == nil {
		return nil, false, fmt.Errorf("bootstrap: aws config required for SQS intake queue")
	}
	return intake.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.IntakeQueueURL), false, nil
}

// BuildThrottle returns the per-visitor submission throttle, or nil without Redis.
func BuildThrottle(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) *intake.Throttle {
	if redisClient == nil {
		return nil
	}
	return intake.NewThrottle(redisClient, intake.ThrottleConfig{
		MaxPerWindow: cfg.IntakeThrottleMax,
		Window:       cfg.IntakeThrottleWindow,
	}, logger)
}

// WorkerDeps are the collaborators of the intake worker.
type WorkerDeps struct {
	Queue    intake.Queue
	Notifier intake.Notifier
	Archiver intake.Archiver
	Deduper  events.Deduper
	Metrics  *metrics.IntakeMetrics
}

// BuildWorker assembles the intake worker from deps.
func BuildWorker(cfg *appconfig.Config, deps WorkerDeps, logger *logging.Logger) *intake.Worker {
	opts := []intake.WorkerOption{
		intake.WithWorkerCount(cfg.IntakeWorkerCount),
		intake.WithDeduper(deps.Deduper),
		intake.WithWorkerMetrics(deps.Metrics),
	}
	if deps.Archiver != nil {
		opts = append(opts, intake.WithArchiver(deps.Archiver))
	}
	return intake.NewWorker(deps.Queue, deps.Notifier, logger, opts...)
}
