// README: Event definitions for the discrete-event loop.
package sim

import (
	"time"

	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/order"
	"crowdship/internal/types"
)

// Kind discriminates event payloads.
type Kind string

const (
	KindOrderArrival     Kind = "ORDER_ARRIVAL"
	KindDriverArrival    Kind = "DRIVER_ARRIVAL"
	KindTick             Kind = "TICK"
	KindCancellation     Kind = "CANCELLATION"
	KindOrderPickup      Kind = "ORDER_PICKUP"
	KindDeliveryComplete Kind = "DELIVERY_COMPLETE"
)

// Event is immutable once scheduled. The populated payload fields depend on
// Kind; everything else stays zero.
type Event struct {
	At   time.Time
	Kind Kind

	// seq is the queue insertion number, the tie-break for equal timestamps.
	seq uint64

	// Arrivals carry the entity being injected into the run.
	Order  *order.Order
	Driver *driver.Driver

	// Lifecycle events refer to entities by id.
	OrderID  types.ID
	DriverID types.ID
	FleetID  types.ID

	Tick       int
	Reason     string
	DistanceKm float64
	Minutes    float64
}
