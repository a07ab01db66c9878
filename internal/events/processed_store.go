package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deduper records which events a consumer has already handled so that
// redelivered queue messages are skipped.
type Deduper interface {
	MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ProcessedStore is the Postgres Deduper.
type ProcessedStore struct {
	pool execer
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{pool: pool}
}

func newProcessedStoreWithExec(exec execer) *ProcessedStore {
	if exec == nil {
		panic("events: exec required")
	}
	return &ProcessedStore{pool: exec}
}

// MarkProcessed returns false when the event was already recorded for consumer.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	query := `
		INSERT INTO processed_events (consumer, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, query, consumer, eventID)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// MemoryDeduper is the in-process Deduper used without a database.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

func (d *MemoryDeduper) MarkProcessed(_ context.Context, consumer, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := consumer + "/" + eventID
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}
