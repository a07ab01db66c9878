package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cappsac/capps-site/internal/archive"
	"github.com/cappsac/capps-site/pkg/logging"
)

// ThrottleConfig bounds submissions per visitor per window.
type ThrottleConfig struct {
	MaxPerWindow int
	Window       time.Duration
}

// DefaultThrottleConfig returns the default limits.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{MaxPerWindow: 5, Window: time.Hour}
}

// ThrottleResult is the outcome of one check.
type ThrottleResult struct {
	Allowed      bool
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
}

// Throttle counts submissions per hashed email or phone in Redis. It fails
// open: when Redis is unavailable every submission is allowed.
type Throttle struct {
	redis  *redis.Client
	config ThrottleConfig
	logger *logging.Logger
}

func NewThrottle(client *redis.Client, cfg ThrottleConfig, logger *logging.Logger) *Throttle {
	if logger == nil {
		logger = logging.Default()
	}
	def := DefaultThrottleConfig()
	if cfg.MaxPerWindow <= 0 {
		cfg.MaxPerWindow = def.MaxPerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &Throttle{redis: client, config: cfg, logger: logger}
}

// Check counts one submission of kind for contact, which should already be
// normalized. Counts are kept per kind so a contact message does not use up
// the booking allowance.
func (t *Throttle) Check(ctx context.Context, kind, contact string) ThrottleResult {
	if t == nil || t.redis == nil || contact == "" {
		return ThrottleResult{Allowed: true}
	}
	ctx, span := tracer.Start(ctx, "intake.throttle_check")
	defer span.End()
	span.SetAttributes(attribute.String("intake.kind", kind))

	key := throttleKey(kind, contact)
	count, expiry, err := t.incrementAndGet(ctx, key)
	if err != nil {
		t.logger.Error("throttle check failed", "error", err, "kind", kind)
		return ThrottleResult{Allowed: true}
	}

	result := ThrottleResult{
		Allowed:      count <= t.config.MaxPerWindow,
		CurrentCount: count,
		MaxAllowed:   t.config.MaxPerWindow,
		WindowExpiry: expiry,
	}
	if !result.Allowed {
		t.logger.Warn("submission throttle exceeded", "kind", kind, "count", count, "max", t.config.MaxPerWindow)
		span.SetAttributes(attribute.Bool("intake.throttled", true))
	}
	return result
}

// Reset clears the counter for contact (admin use).
func (t *Throttle) Reset(ctx context.Context, kind, contact string) error {
	return t.redis.Del(ctx, throttleKey(kind, contact)).Err()
}

// incrementAndGet bumps the counter and sets the window on a key that has no
// expiry yet, in one transaction so a counter never outlives its window.
func (t *Throttle) incrementAndGet(ctx context.Context, key string) (int, time.Time, error) {
	pipe := t.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, t.config.Window)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = t.config.Window
	}
	return int(incr.Val()), time.Now().Add(ttl), nil
}

func throttleKey(kind, contact string) string {
	return fmt.Sprintf("intake:throttle:%s:%s", kind, archive.HashContact(contact))
}
