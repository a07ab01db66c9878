package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cappsac/capps-site/internal/archive"
	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/events"
	"github.com/cappsac/capps-site/internal/observability/metrics"
	"github.com/cappsac/capps-site/pkg/logging"
)

// Notifier tells the office about new submissions.
type Notifier interface {
	NotifyBooking(ctx context.Context, sub booking.Submission) error
	NotifyContact(ctx context.Context, sub contact.Submission) error
}

// Archiver keeps a copy of each submission outside the database.
type Archiver interface {
	Archive(ctx context.Context, record archive.Record) (string, error)
}

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5

	workerConsumer = "intake-worker"
)

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	archiver         Archiver
	deduper          events.Deduper
	metrics          *metrics.IntakeMetrics
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

func WithArchiver(a Archiver) WorkerOption {
	return func(cfg *workerConfig) { cfg.archiver = a }
}

// WithDeduper skips events already handled, since SQS delivers at least once.
func WithDeduper(d events.Deduper) WorkerOption {
	return func(cfg *workerConfig) { cfg.deduper = d }
}

func WithWorkerMetrics(m *metrics.IntakeMetrics) WorkerOption {
	return func(cfg *workerConfig) { cfg.metrics = m }
}

// Worker consumes intake events and performs the office hand-off. Each event
// is handled at most once when a deduper is configured; delivery failures
// are logged and counted but not retried, so the office is never emailed
// twice about one submission.
type Worker struct {
	queue    Queue
	notifier Notifier
	logger   *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

func NewWorker(queue Queue, notifier Notifier, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("intake: worker queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Worker{
		queue:    queue,
		notifier: notifier,
		logger:   logger.Component("intake-worker"),
		cfg:      cfg,
	}
}

// Start launches the consumer goroutines. They exit when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("intake worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("intake worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive intake events", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg Message) {
	defer w.deleteMessage(context.WithoutCancel(ctx), msg.ReceiptHandle)

	var env events.Envelope
	if err := json.Unmarshal([]byte(msg.Body), &env); err != nil {
		w.logger.Error("failed to decode intake envelope", "error", err, "msg_id", msg.ID)
		return
	}
	evt, err := env.Decode()
	if err != nil {
		w.logger.Error("dropping intake event", "error", err, "event_id", env.EventID, "event_type", env.EventType)
		return
	}

	if w.cfg.deduper != nil {
		first, err := w.cfg.deduper.MarkProcessed(ctx, workerConsumer, env.EventID.String())
		if err != nil {
			// Handle anyway; a duplicate email beats a lost one.
			w.logger.Warn("dedupe lookup failed", "error", err, "event_id", env.EventID)
		} else if !first {
			w.logger.Info("skipping duplicate intake event", "event_id", env.EventID)
			return
		}
	}

	switch e := evt.(type) {
	case *events.BookingSubmittedV1:
		w.handleBooking(ctx, env, e.Submission)
	case *events.ContactSubmittedV1:
		w.handleContact(ctx, env, e.Submission)
	}
}

func (w *Worker) handleBooking(ctx context.Context, env events.Envelope, sub booking.Submission) {
	if w.notifier != nil {
		err := w.notifier.NotifyBooking(ctx, sub)
		w.cfg.metrics.ObserveDelivery("email", err)
		if err != nil {
			w.logger.Error("booking notification failed", "error", err, "submission_id", sub.ID)
		}
	}
	w.archive(ctx, env, kindBooking, sub.ID, sub.Request.Email, sub.SubmittedAt, sub)
}

func (w *Worker) handleContact(ctx context.Context, env events.Envelope, sub contact.Submission) {
	if w.notifier != nil {
		err := w.notifier.NotifyContact(ctx, sub)
		w.cfg.metrics.ObserveDelivery("email", err)
		if err != nil {
			w.logger.Error("contact notification failed", "error", err, "submission_id", sub.ID)
		}
	}
	w.archive(ctx, env, kindContact, sub.ID, sub.Request.Email, sub.SubmittedAt, sub)
}

func (w *Worker) archive(ctx context.Context, env events.Envelope, kind, id, email string, submittedAt time.Time, sub any) {
	if w.cfg.archiver == nil {
		return
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		w.logger.Error("failed to encode submission for archive", "error", err, "submission_id", id)
		return
	}
	_, err = w.cfg.archiver.Archive(ctx, archive.Record{
		Kind:        kind,
		ID:          id,
		EventID:     env.EventID.String(),
		ContactHash: archive.HashContact(archive.NormalizeEmail(email)),
		SubmittedAt: submittedAt,
		Submission:  payload,
	})
	w.cfg.metrics.ObserveDelivery("archive", err)
	if err != nil {
		w.logger.Error("archive failed", "error", err, "kind", kind, "submission_id", id)
	}
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete intake event", "error", err)
	}
}
