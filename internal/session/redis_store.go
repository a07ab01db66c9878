package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/cappsac/capps-site/internal/booking"
)

// RedisStore keeps snapshots as JSON strings with a TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore panics on a nil client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("capps.internal.session"),
	}
}

func (s *RedisStore) Load(ctx context.Context, id string) (booking.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return booking.Snapshot{}, ErrNotFound
		}
		span.RecordError(err)
		return booking.Snapshot{}, fmt.Errorf("session: failed to load %s: %w", id, err)
	}
	var snap booking.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		return booking.Snapshot{}, fmt.Errorf("session: failed to decode %s: %w", id, err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, snap booking.Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to encode %s: %w", id, err)
	}
	if err := s.redis.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete %s: %w", id, err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("booking_session:%s", id)
}
