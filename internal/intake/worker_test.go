package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cappsac/capps-site/internal/archive"
	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/events"
)

type recordingNotifier struct {
	mu       sync.Mutex
	bookings []booking.Submission
	contacts []contact.Submission
	err      error
}

func (n *recordingNotifier) NotifyBooking(_ context.Context, sub booking.Submission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, sub)
	return n.err
}

func (n *recordingNotifier) NotifyContact(_ context.Context, sub contact.Submission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, sub)
	return n.err
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bookings), len(n.contacts)
}

type recordingArchiver struct {
	mu      sync.Mutex
	records []archive.Record
}

func (a *recordingArchiver) Archive(_ context.Context, r archive.Record) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, r)
	return "key/" + r.ID, nil
}

func (a *recordingArchiver) all() []archive.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]archive.Record(nil), a.records...)
}

type deleteRecordingQueue struct {
	*MemoryQueue
	mu      sync.Mutex
	deleted []string
}

func (q *deleteRecordingQueue) Delete(_ context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, receipt)
	return nil
}

func envelopeBody(t *testing.T, aggregate string, evt events.CanonicalEvent) string {
	t.Helper()
	env, err := events.NewEnvelope(aggregate, "req-1", evt)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return string(body)
}

func TestWorkerDeliversBookingAndArchives(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	queue := NewMemoryQueue(8)
	notifier := &recordingNotifier{}
	archiver := &recordingArchiver{}
	w := NewWorker(queue, notifier, nil,
		WithWorkerCount(1),
		WithReceiveWaitSeconds(1),
		WithArchiver(archiver),
		WithDeduper(events.NewMemoryDeduper()),
	)

	sub := sampleBooking("bk-1", time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC))
	_, err := NewPublisher(queue, nil).Publish(context.Background(), "booking:bk-1", "req-1", events.BookingSubmittedV1{Submission: sub})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	require.Eventually(t, func() bool { return len(archiver.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	w.Wait()

	b, c := notifier.counts()
	assert.Equal(t, 1, b)
	assert.Zero(t, c)

	rec := archiver.all()[0]
	assert.Equal(t, "booking", rec.Kind)
	assert.Equal(t, "bk-1", rec.ID)
	assert.NotEmpty(t, rec.EventID)
	assert.Equal(t, archive.HashContact("dana@example.com"), rec.ContactHash)
	assert.True(t, rec.SubmittedAt.Equal(sub.SubmittedAt))

	var archived booking.Submission
	require.NoError(t, json.Unmarshal(rec.Submission, &archived))
	assert.Equal(t, sub.Request, archived.Request)
}

func TestWorkerHandleContact(t *testing.T) {
	notifier := &recordingNotifier{}
	archiver := &recordingArchiver{}
	w := NewWorker(NewMemoryQueue(1), notifier, nil, WithArchiver(archiver))

	body := envelopeBody(t, "contact:ct-1", events.ContactSubmittedV1{Submission: sampleContact("ct-1", time.Now())})
	w.handleMessage(context.Background(), Message{ID: "m-1", Body: body})

	_, c := notifier.counts()
	assert.Equal(t, 1, c)
	require.Len(t, archiver.all(), 1)
	assert.Equal(t, "contact", archiver.all()[0].Kind)
	assert.Equal(t, archive.HashContact("sam@example.com"), archiver.all()[0].ContactHash)
}

func TestWorkerSkipsDuplicateEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	queue := &deleteRecordingQueue{MemoryQueue: NewMemoryQueue(1)}
	w := NewWorker(queue, notifier, nil, WithDeduper(events.NewMemoryDeduper()))

	body := envelopeBody(t, "booking:bk-1", events.BookingSubmittedV1{Submission: sampleBooking("bk-1", time.Now())})
	w.handleMessage(context.Background(), Message{ID: "m-1", Body: body, ReceiptHandle: "rh-1"})
	w.handleMessage(context.Background(), Message{ID: "m-2", Body: body, ReceiptHandle: "rh-2"})

	b, _ := notifier.counts()
	assert.Equal(t, 1, b)
	assert.Equal(t, []string{"rh-1", "rh-2"}, queue.deleted, "duplicates are removed from the queue")
}

func TestWorkerArchivesWhenEmailFails(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	archiver := &recordingArchiver{}
	w := NewWorker(NewMemoryQueue(1), notifier, nil, WithArchiver(archiver))

	body := envelopeBody(t, "booking:bk-1", events.BookingSubmittedV1{Submission: sampleBooking("bk-1", time.Now())})
	w.handleMessage(context.Background(), Message{ID: "m-1", Body: body})

	assert.Len(t, archiver.all(), 1)
}

func TestWorkerDropsUndecodableMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{nope"},
		{name: "unknown type", body: `{"event_id":"6f1c7a52-7c1f-4b53-9d0c-1c8f3f0f9b11","event_type":"quote.requested.v1","aggregate":"x","payload":{}}`},
		{name: "bad payload", body: `{"event_id":"6f1c7a52-7c1f-4b53-9d0c-1c8f3f0f9b11","event_type":"booking.submitted.v1","aggregate":"x","payload":"oops"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			queue := &deleteRecordingQueue{MemoryQueue: NewMemoryQueue(1)}
			w := NewWorker(queue, notifier, nil)

			w.handleMessage(context.Background(), Message{ID: "m-1", Body: tt.body, ReceiptHandle: "rh-1"})

			b, c := notifier.counts()
			assert.Zero(t, b+c)
			assert.Equal(t, []string{"rh-1"}, queue.deleted)
		})
	}
}

func TestWorkerOptionsClamp(t *testing.T) {
	w := NewWorker(NewMemoryQueue(1), nil, nil,
		WithWorkerCount(0),
		WithReceiveWaitSeconds(99),
		WithReceiveBatchSize(50),
	)
	assert.Equal(t, defaultWorkerCount, w.cfg.workers)
	assert.Equal(t, maxWaitSeconds, w.cfg.receiveWaitSecs)
	assert.Equal(t, maxReceiveBatchSize, w.cfg.receiveBatchSize)

	assert.Panics(t, func() { NewWorker(nil, nil, nil) })
}
