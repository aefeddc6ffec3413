package viewstate

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore keeps view state in process memory. Entries expire after the
// configured TTL; a zero TTL keeps them until deleted.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry
	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		m:   map[string]memoryEntry{},
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	key := Key(sessionID)

	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()

	if ok && !e.expires.IsZero() && s.now().After(e.expires) {
		s.mu.Lock()
		if cur, still := s.m[key]; still && cur.expires.Equal(e.expires) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		ok = false
	}
	if !ok {
		stateMisses.WithLabelValues("memory").Inc()
		return nil, ErrNotFound
	}

	stateHits.WithLabelValues("memory").Inc()
	st := e.state
	st.Forms = append(st.Forms[:0:0], e.state.Forms...)
	return &st, nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, state *State) error {
	if state == nil {
		stateErrors.WithLabelValues("put").Inc()
		return ErrInvalidState
	}

	e := memoryEntry{state: *state}
	e.state.Forms = append(state.Forms[:0:0], state.Forms...)
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[Key(sessionID)] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, Key(sessionID))
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
