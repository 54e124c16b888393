// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Sessions live only as long as the process; there is no persistence.
//
// Characteristics:
//   - Stores *session.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Sweep drops sessions idle for longer than a TTL and closes their
//     subscriber streams.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/dexscope/internal/session"
)

var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for quiz sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes a session. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Sweep removes sessions whose last activity is older than now-idle and
	// returns their IDs.
	Sweep(ctx context.Context, idle time.Duration, now time.Time) ([]string, error)
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*session.Session)}
}

func (m *memory) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return nil
}

func (m *memory) Sweep(ctx context.Context, idle time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-idle)

	m.mu.Lock()
	var expired []*session.Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, s := range expired {
		s.Close()
		ids = append(ids, s.ID)
	}
	return ids, nil
}
