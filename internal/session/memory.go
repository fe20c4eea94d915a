package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealfinder-cli/internal/model"
)

// MemoryStore implements Store with an in-process map. It is the default
// backend for single-process CLI use. State is kept serialized so Get hands
// out an independent copy, matching the SQL backends.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
}

type memoryEntry struct {
	state     []byte
	expiresAt time.Time
}

// NewMemory creates a MemoryStore. A ttl of 0 means sessions never expire.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
	}
}

func (s *MemoryStore) Get(ctx context.Context, threadID string) (*model.SessionState, error) {
	s.mu.RLock()
	entry, ok := s.sessions[threadID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		// Expired entries are removed lazily on read.
		s.mu.Lock()
		delete(s.sessions, threadID)
		s.mu.Unlock()
		return nil, nil
	}

	var state model.SessionState
	if err := json.Unmarshal(entry.state, &state); err != nil {
		return nil, eris.Wrapf(err, "memory: unmarshal session %s", threadID)
	}
	return &state, nil
}

func (s *MemoryStore) Put(ctx context.Context, state *model.SessionState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "memory: marshal session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.ThreadID] = memoryEntry{
		state:     stateJSON,
		expiresAt: expiry(s.ttl, time.Now()),
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, threadID)
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for threadID, entry := range s.sessions {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.sessions, threadID)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
