package memory

import (
	"context"
	"sort"
	"sync"

	audit "clinic/pkg/platform/audit"
)

// InMemoryStore keeps audit events for the life of the process. Both
// listings return events newest first; equal timestamps keep reverse
// insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByEntity returns every event for one entity.
func (s *InMemoryStore) ListByEntity(_ context.Context, entityID string) ([]audit.Event, error) {
	return s.newestFirst(func(e audit.Event) bool { return e.EntityID == entityID }, -1), nil
}

// ListRecent returns up to limit events across all entities. A negative
// limit returns everything.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	return s.newestFirst(func(audit.Event) bool { return true }, limit), nil
}

func (s *InMemoryStore) newestFirst(keep func(audit.Event) bool, limit int) []audit.Event {
	s.mu.RLock()
	out := make([]audit.Event, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		if keep(s.events[i]) {
			out = append(out, s.events[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
