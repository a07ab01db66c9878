package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/pkg/logging"
)

// Manager serialises load, mutate and save for each session id so that two
// requests for the same visitor never interleave within one process.
type Manager struct {
	store  Store
	schema *booking.Schema
	logger *logging.Logger

	mu    sync.Mutex
	locks map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager wires a store and the booking schema.
func NewManager(store Store, schema *booking.Schema, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		store:  store,
		schema: schema,
		logger: logger.Component("session"),
		locks:  make(map[string]*idLock),
	}
}

// Create starts a wizard on step 1 and stores it under a fresh id.
func (m *Manager) Create(ctx context.Context) (string, booking.Snapshot, error) {
	id := uuid.NewString()
	snap := booking.NewWizard(m.schema).Snapshot()
	if err := m.store.Save(ctx, id, snap); err != nil {
		return "", booking.Snapshot{}, err
	}
	m.logger.Debug("booking session created", "session_id", id)
	return id, snap, nil
}

// Get returns the wizard stored under id.
func (m *Manager) Get(ctx context.Context, id string) (*booking.Wizard, error) {
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return booking.Restore(m.schema, snap), nil
}

// Update loads the wizard, applies fn and saves the result. The wizard is
// saved even when fn fails, since failed operations leave its state intact
// while field values captured before the failure should survive. The error
// from fn is returned unchanged.
func (m *Manager) Update(ctx context.Context, id string, fn func(*booking.Wizard) error) (*booking.Wizard, error) {
	unlock := m.lock(id)
	defer unlock()

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	w := booking.Restore(m.schema, snap)
	fnErr := fn(w)
	if err := m.store.Save(ctx, id, w.Snapshot()); err != nil {
		if fnErr != nil {
			return nil, errors.Join(fnErr, err)
		}
		return nil, err
	}
	return w, fnErr
}

// Delete forgets a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &idLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
