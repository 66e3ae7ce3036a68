// Package book is the order book / storage collaborator spec.md §5
// treats as an opaque, thread-safe-per-key external dependency: an
// in-memory order store plus a per-instrument price-time-priority
// matching book. The Transaction Manager's dependency graph serializes
// access to overlapping keys, so Storage and Book only need to be safe
// under concurrent access to *different* keys — the mutexes here are
// per-structure, not per-order, matching that assumption.
package book

import (
	"sync"

	"github.com/coplib/orderengine/internal/model"
)

// Storage is the order store: orders keyed by assigned id, with a
// ClOrderID index for duplicate detection (spec.md §8 scenario 2).
type Storage struct {
	mu          sync.RWMutex
	orders      map[model.IdT]*model.Order
	byClOrderID map[string]model.IdT
}

// NewStorage returns an empty order store.
func NewStorage() *Storage {
	return &Storage{
		orders:      make(map[model.IdT]*model.Order),
		byClOrderID: make(map[string]model.IdT),
	}
}

// Put indexes o by its id. If o.ClOrderID is not yet claimed, it is also
// indexed for LocateByClOrderID; an already-claimed ClOrderID is left
// pointing at whichever order first claimed it (the caller is expected
// to reject the duplicate before calling Put for it).
func (s *Storage) Put(o *model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	if _, claimed := s.byClOrderID[o.ClOrderID]; !claimed {
		s.byClOrderID[o.ClOrderID] = o.ID
	}
}

// Get returns the order stored under id.
func (s *Storage) Get(id model.IdT) (*model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

// LocateByClOrderID returns the first order that claimed clOrderID.
func (s *Storage) LocateByClOrderID(clOrderID string) (*model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byClOrderID[clOrderID]
	if !ok {
		return nil, false
	}
	return s.orders[id], true
}
