package relay

import (
	"context"
	"sync"
	"time"
)

// Store is the single-slot payload store shared across page loads.
//
// Get returns (nil, nil) when the slot is empty or the payload is stale;
// stale payloads are purged before returning. Read-then-delete semantics are
// the consumer's responsibility, not the store's: a consumer that acts on a
// payload must Delete the slot afterwards.
type Store interface {
	Put(ctx context.Context, p Payload) error
	Get(ctx context.Context) (*Payload, error)
	Delete(ctx context.Context) error
}

// MemoryStore is an in-process Store. It backs tests and single-process runs
// where producer and consumer share one automation session.
type MemoryStore struct {
	mu   sync.Mutex
	slot *Payload

	// now is swappable for staleness tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Put stores the payload, replacing any previous one.
func (s *MemoryStore) Put(_ context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot = &p
	return nil
}

// Get returns the stored payload, or nil when the slot is empty or stale.
// A stale payload is purged.
func (s *MemoryStore) Get(_ context.Context) (*Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slot == nil {
		return nil, nil
	}
	if s.slot.Stale(s.now()) {
		s.slot = nil
		return nil, nil
	}
	p := *s.slot
	return &p, nil
}

// Delete clears the slot.
func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot = nil
	return nil
}
