package repositoryimpl

import (
	"context"
	"sync"

	"github.com/hostelops/turnkey/internal/history"
)

// MemoryRepository keeps change events in memory. It backs the history
// preview endpoint, where detectors run against hypothetical snapshots and
// nothing should reach durable storage. Also convenient in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	events []*history.Event
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, ev *history.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, contextAlias, contextID string) ([]*history.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*history.Event
	for _, ev := range r.events {
		if contextAlias != "" && ev.ContextAlias != contextAlias {
			continue
		}
		if contextID != "" && ev.ContextID != contextID {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// All returns every stored event in insertion order.
func (r *MemoryRepository) All() []*history.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*history.Event, len(r.events))
	copy(out, r.events)
	return out
}
