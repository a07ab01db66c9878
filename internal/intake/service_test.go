package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/events"
	"github.com/cappsac/capps-site/internal/observability/metrics"
)

type failingRepo struct {
	*MemoryRepository
	err error
}

func (f failingRepo) SaveBooking(context.Context, booking.Submission) error { return f.err }
func (f failingRepo) SaveContact(context.Context, contact.Submission) error { return f.err }

type failingQueue struct{ MemoryQueue }

func (failingQueue) Send(context.Context, string) error { return errors.New("queue down") }

// counterValue reads one labelled counter from reg; labels are name/value pairs.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	want := map[string]string{}
	for i := 0; i+1 < len(labels); i += 2 {
		want[labels[i]] = labels[i+1]
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					continue series
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func sampleContact(id string, at time.Time) contact.Submission {
	return contact.Submission{
		ID: id,
		Request: contact.Request{
			FirstName: "Sam",
			LastName:  "Ortiz",
			Email:     "Sam@Example.com",
			Subject:   "General Inquiry",
			Message:   "Do you service heat pumps?",
		},
		SubmittedAt: at,
	}
}

func receiveEnvelope(t *testing.T, q *MemoryQueue) events.Envelope {
	t.Helper()
	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	var env events.Envelope
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Body), &env))
	return env
}

func TestServiceSubmitBookingStoresAndPublishes(t *testing.T) {
	repo := NewMemoryRepository()
	queue := NewMemoryQueue(4)
	reg := prometheus.NewRegistry()
	m := metrics.NewIntakeMetrics(reg)
	svc := NewService(repo, nil, WithPublisher(NewPublisher(queue, nil)), WithMetrics(m))

	sub := sampleBooking("bk-1", time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC))
	require.NoError(t, svc.SubmitBooking(context.Background(), sub))

	stored, err := svc.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, sub, stored)

	env := receiveEnvelope(t, queue)
	assert.Equal(t, events.TypeBookingSubmittedV1, env.EventType)
	assert.Equal(t, "booking:bk-1", env.Aggregate)
	evt, err := env.Decode()
	require.NoError(t, err)
	got, ok := evt.(*events.BookingSubmittedV1)
	require.True(t, ok)
	assert.Equal(t, "bk-1", got.Submission.ID)
	assert.Equal(t, sub.Request, got.Submission.Request)

	assert.Equal(t, 1.0, counterValue(t, reg, "capps_intake_submissions_total", "kind", "booking", "status", "stored"))
}

func TestServiceResubmittedBookingIsNotAnnouncedTwice(t *testing.T) {
	repo := NewMemoryRepository()
	queue := NewMemoryQueue(4)
	svc := NewService(repo, nil, WithPublisher(NewPublisher(queue, nil)))
	ctx := context.Background()

	first := sampleBooking("bk-1", time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC))
	retry := first
	retry.SubmittedAt = first.SubmittedAt.Add(time.Minute)
	require.NoError(t, svc.SubmitBooking(ctx, first))
	require.NoError(t, svc.SubmitBooking(ctx, retry))

	assert.Equal(t, 1, queue.Len())
	stored, err := repo.GetBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, first.SubmittedAt, stored.SubmittedAt)
}

func TestServiceSubmitContactStoresAndPublishes(t *testing.T) {
	repo := NewMemoryRepository()
	queue := NewMemoryQueue(4)
	svc := NewService(repo, nil, WithPublisher(NewPublisher(queue, nil)))

	require.NoError(t, svc.SubmitContact(context.Background(), sampleContact("ct-1", time.Now())))

	list, err := svc.ListContacts(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ct-1", list[0].ID)

	env := receiveEnvelope(t, queue)
	assert.Equal(t, events.TypeContactSubmittedV1, env.EventType)
	assert.Equal(t, "contact:ct-1", env.Aggregate)
}

func TestServiceStoreFailureIsReturned(t *testing.T) {
	queue := NewMemoryQueue(4)
	repo := failingRepo{MemoryRepository: NewMemoryRepository(), err: errors.New("db down")}
	svc := NewService(repo, nil, WithPublisher(NewPublisher(queue, nil)))

	err := svc.SubmitBooking(context.Background(), sampleBooking("bk-1", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intake: submit booking")
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, queue.Len(), "nothing is announced when storage fails")

	err = svc.SubmitContact(context.Background(), sampleContact("ct-1", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intake: submit contact")
}

func TestServicePublishFailureStillSucceeds(t *testing.T) {
	repo := NewMemoryRepository()
	reg := prometheus.NewRegistry()
	m := metrics.NewIntakeMetrics(reg)
	svc := NewService(repo, nil, WithPublisher(NewPublisher(&failingQueue{}, nil)), WithMetrics(m))

	require.NoError(t, svc.SubmitBooking(context.Background(), sampleBooking("bk-1", time.Now())))

	_, err := repo.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "capps_intake_delivery_total", "channel", "queue", "status", "error"))
}

func TestServicePublishesAfterCallerCancels(t *testing.T) {
	repo := NewMemoryRepository()
	queue := NewMemoryQueue(4)
	svc := NewService(repo, nil, WithPublisher(NewPublisher(queue, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.SubmitBooking(ctx, sampleBooking("bk-1", time.Now())))
	assert.Equal(t, 1, queue.Len())
}

func TestServiceThrottlesRepeatSubmitters(t *testing.T) {
	_, client := setupTestRedis(t)
	throttle := NewThrottle(client, ThrottleConfig{MaxPerWindow: 2, Window: time.Hour}, nil)
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, WithThrottle(throttle))
	ctx := context.Background()

	require.NoError(t, svc.SubmitBooking(ctx, sampleBooking("bk-1", time.Now())))
	require.NoError(t, svc.SubmitBooking(ctx, sampleBooking("bk-2", time.Now())))

	err := svc.SubmitBooking(ctx, sampleBooking("bk-3", time.Now()))
	assert.ErrorIs(t, err, ErrThrottled)
	_, err = repo.GetBooking(ctx, "bk-3")
	assert.ErrorIs(t, err, ErrNotFound)

	// Contact messages have their own allowance.
	require.NoError(t, svc.SubmitContact(ctx, sampleContact("ct-1", time.Now())))
}

func TestServiceThrottleMatchesNormalizedEmail(t *testing.T) {
	_, client := setupTestRedis(t)
	throttle := NewThrottle(client, ThrottleConfig{MaxPerWindow: 1, Window: time.Hour}, nil)
	svc := NewService(NewMemoryRepository(), nil, WithThrottle(throttle))
	ctx := context.Background()

	first := sampleContact("ct-1", time.Now())
	second := sampleContact("ct-2", time.Now())
	second.Request.Email = "  sam@example.COM "

	require.NoError(t, svc.SubmitContact(ctx, first))
	assert.ErrorIs(t, svc.SubmitContact(ctx, second), ErrThrottled)
}

func TestServiceResetThrottle(t *testing.T) {
	_, client := setupTestRedis(t)
	throttle := NewThrottle(client, ThrottleConfig{MaxPerWindow: 1, Window: time.Hour}, nil)
	svc := NewService(NewMemoryRepository(), nil, WithThrottle(throttle))
	ctx := context.Background()

	require.NoError(t, svc.SubmitContact(ctx, sampleContact("ct-1", time.Now())))
	require.ErrorIs(t, svc.SubmitContact(ctx, sampleContact("ct-2", time.Now())), ErrThrottled)

	require.NoError(t, svc.ResetThrottle(ctx, " SAM@example.com", ""))
	assert.NoError(t, svc.SubmitContact(ctx, sampleContact("ct-3", time.Now())))

	assert.NoError(t, NewService(NewMemoryRepository(), nil).ResetThrottle(ctx, "sam@example.com", ""))
}

func TestServiceListBookingsNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SubmitBooking(ctx, sampleBooking("old", base)))
	require.NoError(t, svc.SubmitBooking(ctx, sampleBooking("new", base.Add(time.Hour))))

	list, err := svc.ListBookings(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	assert.Panics(t, func() { NewService(nil, nil) })
}
