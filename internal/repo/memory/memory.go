package memory

import (
	"context"
	"sync"

	"availwatch/internal/domain"
	"availwatch/internal/repo"
)

const historyCap = 256

// Store is the default in-process alert state store, used when no state_db
// path is configured. Nothing survives a restart.
type Store struct {
	mu      sync.RWMutex
	alerts  map[domain.TargetID]repo.AlertRecord
	history []domain.AlertEvent
}

func New() *Store {
	return &Store{
		alerts: make(map[domain.TargetID]repo.AlertRecord),
	}
}

func (m *Store) Get(ctx context.Context, id domain.TargetID) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	rr := r
	return &rr, nil
}

func (m *Store) Set(ctx context.Context, rec repo.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[rec.TargetID] = rec
	return nil
}

func (m *Store) AppendEvent(ctx context.Context, ev domain.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, ev)
	if len(m.history) > historyCap {
		m.history = m.history[len(m.history)-historyCap:]
	}
	return nil
}

func (m *Store) RecentEvents(ctx context.Context, limit int) ([]domain.AlertEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.AlertEvent, 0, n)
	for i := len(m.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.history[i])
	}
	return out, nil
}

var _ repo.Store = (*Store)(nil)
