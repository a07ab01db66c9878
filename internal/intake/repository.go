package intake

import (
	"context"
	"sort"
	"sync"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
)

// ListOptions pages admin listings, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repository is the durable record of submissions.
type Repository interface {
	SaveBooking(ctx context.Context, sub booking.Submission) error
	SaveContact(ctx context.Context, sub contact.Submission) error
	GetBooking(ctx context.Context, id string) (booking.Submission, error)
	ListBookings(ctx context.Context, opts ListOptions) ([]booking.Submission, error)
	ListContacts(ctx context.Context, opts ListOptions) ([]contact.Submission, error)
}

// MemoryRepository keeps submissions in process.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]booking.Submission
	contacts map[string]contact.Submission
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bookings: make(map[string]booking.Submission),
		contacts: make(map[string]contact.Submission),
	}
}

// SaveBooking keeps the first record stored under an id.
func (r *MemoryRepository) SaveBooking(_ context.Context, sub booking.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[sub.ID]; ok {
		return nil
	}
	r.bookings[sub.ID] = sub
	return nil
}

func (r *MemoryRepository) SaveContact(_ context.Context, sub contact.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[sub.ID] = sub
	return nil
}

func (r *MemoryRepository) GetBooking(_ context.Context, id string) (booking.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.bookings[id]
	if !ok {
		return booking.Submission{}, ErrNotFound
	}
	return sub, nil
}

func (r *MemoryRepository) ListBookings(_ context.Context, opts ListOptions) ([]booking.Submission, error) {
	r.mu.RLock()
	out := make([]booking.Submission, 0, len(r.bookings))
	for _, sub := range r.bookings {
		out = append(out, sub)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return page(out, opts), nil
}

func (r *MemoryRepository) ListContacts(_ context.Context, opts ListOptions) ([]contact.Submission, error) {
	r.mu.RLock()
	out := make([]contact.Submission, 0, len(r.contacts))
	for _, sub := range r.contacts {
		out = append(out, sub)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return page(out, opts), nil
}

func page[T any](items []T, opts ListOptions) []T {
	opts = opts.normalize()
	if opts.Offset >= len(items) {
		return []T{}
	}
	end := opts.Offset + opts.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[opts.Offset:end]
}
