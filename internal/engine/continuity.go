package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// ContinuityState is the last-seen action for a continuity key and the time
// it first differed from its predecessor.
type ContinuityState struct {
	Action models.Action `json:"action"`
	Since  time.Time     `json:"since"`
}

// ContinuityStore persists continuity state across evaluation cycles.
// Implementations: in-process memory store, Redis.
type ContinuityStore interface {
	Get(ctx context.Context, key string) (*ContinuityState, error)
	Set(ctx context.Context, key string, state *ContinuityState) error
}

// ContinuityKey builds the store key for one evaluation stream
func ContinuityKey(symbol, timeframe, strategy string) string {
	return fmt.Sprintf("%s:%s:%s", symbol, timeframe, strategy)
}

type memoryEntry struct {
	state   ContinuityState
	expires time.Time
}

// MemoryStore is the default in-process continuity store. State is lost on
// restart; callers treat a restart as all signals just started.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryStore creates an in-memory continuity store. A zero TTL disables
// expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the stored state for a key, or nil when absent or expired
func (m *MemoryStore) Get(_ context.Context, key string) (*ContinuityState, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && time.Now().After(entry.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}

	state := entry.state
	return &state, nil
}

// Set stores the state for a key, refreshing its TTL
func (m *MemoryStore) Set(_ context.Context, key string, state *ContinuityState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		state:   *state,
		expires: time.Now().Add(m.ttl),
	}
	return nil
}
