package locality

import (
	"sync"

	"pricing-service/internal/models"
)

// StateSlot holds the current locality for the running session. The resolver
// is the single writer; readers take an immutable snapshot per computation
// pass and subscribers are notified on every replacement so price-dependent
// lookups re-run.
type StateSlot struct {
	mu          sync.RWMutex
	current     *models.Locality
	subscribers []func(models.Locality)
}

// NewStateSlot creates an empty state slot
func NewStateSlot() *StateSlot {
	return &StateSlot{}
}

// Snapshot returns the current locality, or nil while unresolved. The
// returned value is a copy; readers treat it as immutable.
func (s *StateSlot) Snapshot() *models.Locality {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	return &snapshot
}

// Subscribe registers a callback invoked on every locality replacement
func (s *StateSlot) Subscribe(fn func(models.Locality)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Replace atomically swaps the current locality and fans out to subscribers.
// Only the resolver calls this.
func (s *StateSlot) Replace(locality models.Locality) {
	s.mu.Lock()
	s.current = &locality
	subscribers := make([]func(models.Locality), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(locality)
	}
}

// Clear drops the current locality without notifying subscribers; consumers
// observe the unresolved state on their next snapshot.
func (s *StateSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
