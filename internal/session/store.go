// Package session keeps booking wizards between requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/cappsac/capps-site/internal/booking"
)

// DefaultTTL is how long an untouched wizard survives.
const DefaultTTL = 2 * time.Hour

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Store persists wizard snapshots by session id. Save refreshes the TTL.
type Store interface {
	Load(ctx context.Context, id string) (booking.Snapshot, error)
	Save(ctx context.Context, id string, snap booking.Snapshot) error
	Delete(ctx context.Context, id string) error
}
