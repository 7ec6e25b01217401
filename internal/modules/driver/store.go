// README: In-memory arenas for drivers and fleet vehicles.
package driver

import (
	"errors"
	"sort"
	"time"

	"crowdship/internal/types"
)

var ErrNotFound = errors.New("driver not found")

// Store owns every Driver in a run, plus the pool of ids currently
// accepting work. Single-threaded by design, no lock.
type Store struct {
	drivers   map[types.ID]*Driver
	available map[types.ID]struct{}
}

func NewStore() *Store {
	return &Store{
		drivers:   make(map[types.ID]*Driver),
		available: make(map[types.ID]struct{}),
	}
}

func (s *Store) Add(d *Driver) {
	s.drivers[d.ID] = d
}

func (s *Store) Get(id types.ID) (*Driver, error) {
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *Store) Len() int { return len(s.drivers) }

// All returns the backing map; callers must treat it as read-only.
func (s *Store) All() map[types.ID]*Driver { return s.drivers }

// MarkAvailable puts a driver into the assignable pool.
func (s *Store) MarkAvailable(id types.ID) { s.available[id] = struct{}{} }

// MarkBusy removes a driver from the assignable pool (at capacity or off shift).
func (s *Store) MarkBusy(id types.ID) { delete(s.available, id) }

// Available returns the drivers open for new work at the given time, in a
// deterministic (id-sorted) order so runs are reproducible.
func (s *Store) Available(now time.Time) []*Driver {
	out := make([]*Driver, 0, len(s.available))
	for id := range s.available {
		d := s.drivers[id]
		if d.Available(now) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FleetStore owns the dedicated fleet.
type FleetStore struct {
	vehicles map[types.ID]*FleetVehicle
	ids      []types.ID
}

func NewFleetStore() *FleetStore {
	return &FleetStore{vehicles: make(map[types.ID]*FleetVehicle)}
}

func (s *FleetStore) Add(f *FleetVehicle) {
	s.vehicles[f.ID] = f
	s.ids = append(s.ids, f.ID)
}

func (s *FleetStore) Get(id types.ID) (*FleetVehicle, error) {
	f, ok := s.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

// All returns the backing map; callers must treat it as read-only.
func (s *FleetStore) All() map[types.ID]*FleetVehicle { return s.vehicles }

// FirstAvailable returns the first free vehicle able to carry the parcel,
// scanning in insertion order.
func (s *FleetStore) FirstAvailable(volumeL, weightKg float64) *FleetVehicle {
	for _, id := range s.ids {
		f := s.vehicles[id]
		if f.Available && f.CanCarry(volumeL, weightKg) {
			return f
		}
	}
	return nil
}
