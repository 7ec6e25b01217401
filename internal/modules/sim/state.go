// README: Mutable world state for one run: entity arenas, clock, counters.
package sim

import (
	"time"

	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/kpi"
	"crowdship/internal/modules/order"
)

// State holds everything a run mutates. The loop is single-threaded: all
// mutation happens synchronously inside an event's apply step, so there is
// nothing to lock.
type State struct {
	Orders  *order.Store
	Drivers *driver.Store
	Fleet   *driver.FleetStore

	Now  time.Time
	Tick int

	CompletedDeliveries int
	TotalDeliveryKm     float64
	TotalDeliveryMin    float64
	FleetCost           float64

	// LastKPIs is refreshed on every tick and once more when the run ends.
	LastKPIs kpi.Snapshot
}

func NewState(start time.Time) *State {
	return &State{
		Orders:  order.NewStore(),
		Drivers: driver.NewStore(),
		Fleet:   driver.NewFleetStore(),
		Now:     start,
	}
}

// AddOrder registers an order into the arena.
func (s *State) AddOrder(o *order.Order) {
	s.Orders.Add(o)
}

// AddDriver registers a driver and places them in the available pool.
func (s *State) AddDriver(d *driver.Driver) {
	s.Drivers.Add(d)
	s.Drivers.MarkAvailable(d.ID)
}

// AddFleetVehicle registers a dedicated fleet vehicle.
func (s *State) AddFleetVehicle(f *driver.FleetVehicle) {
	s.Fleet.Add(f)
}
