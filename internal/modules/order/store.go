// README: In-memory order arena; the single owned collection of orders.
package order

import (
	"errors"

	"crowdship/internal/types"
)

var ErrNotFound = errors.New("order not found")

// Store owns every Order in a simulation run. All other modules refer to
// orders by id, never by a second mutable alias. The simulation is
// single-threaded by design, so the store carries no lock.
type Store struct {
	orders     map[types.ID]*Order
	unassigned map[types.ID]struct{}
	assigned   map[types.ID]struct{}
}

func NewStore() *Store {
	return &Store{
		orders:     make(map[types.ID]*Order),
		unassigned: make(map[types.ID]struct{}),
		assigned:   make(map[types.ID]struct{}),
	}
}

// Add registers a freshly published order and places it in the unassigned pool.
func (s *Store) Add(o *Order) {
	s.orders[o.ID] = o
	if o.Status == StatusPublished {
		s.unassigned[o.ID] = struct{}{}
	}
}

func (s *Store) Get(id types.ID) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Store) Len() int { return len(s.orders) }

// All returns the backing map; callers must treat it as read-only.
func (s *Store) All() map[types.ID]*Order { return s.orders }

// Unassigned returns the orders currently waiting for a driver.
func (s *Store) Unassigned() []*Order {
	out := make([]*Order, 0, len(s.unassigned))
	for id := range s.unassigned {
		out = append(out, s.orders[id])
	}
	return out
}

// MarkAssigned moves an order from the unassigned pool to the assigned set.
func (s *Store) MarkAssigned(id types.ID) {
	delete(s.unassigned, id)
	s.assigned[id] = struct{}{}
}

// Retire removes an order from both pools once it reaches a terminal state.
func (s *Store) Retire(id types.ID) {
	delete(s.unassigned, id)
	delete(s.assigned, id)
}

// Requeue puts an accepted order back into the unassigned pool, used when a
// driver withdraws before pickup.
func (s *Store) Requeue(id types.ID) {
	delete(s.assigned, id)
	s.unassigned[id] = struct{}{}
}

// UnassignedCount reports the size of the waiting pool.
func (s *Store) UnassignedCount() int { return len(s.unassigned) }
