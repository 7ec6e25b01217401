// README: Driver aggregate: mobile agents that carry parcels alongside their own trips.
package driver

import (
	"fmt"
	"time"

	"crowdship/internal/types"
)

// VehicleType drives capacity defaults and emission factors.
type VehicleType string

const (
	VehicleBike      VehicleType = "bike"
	VehicleMotorbike VehicleType = "motorbike"
	VehicleCar       VehicleType = "car"
	VehicleVan       VehicleType = "van"
	VehicleBus       VehicleType = "bus"
	VehicleTruck     VehicleType = "truck"
)

// Class groups drivers by how they participate in the marketplace. Couriers
// work dense multi-stop rounds, metro drivers ride fixed transit routes,
// truck drivers take the bulky tail.
type Class string

const (
	ClassMetro   Class = "metro"
	ClassCourier Class = "courier"
	ClassTruck   Class = "truck"
	ClassGeneral Class = "general"
)

type Driver struct {
	ID            types.ID
	Class         Class
	VehicleType   VehicleType
	HomeBase      types.Point
	Location      types.Point
	AvailableFrom time.Time
	AvailableTo   time.Time
	CapacityL     float64
	MaxWeightKg   float64
	SpeedKmh      float64
	Rating        float64
	// AcceptanceRate7d feeds scoring only, never hard constraints.
	AcceptanceRate7d float64
	WagePerKmExpect  float64
	MaxOrders        int

	CurrentOrders []types.ID
	Earnings      float64
	carriedL      float64
	carriedKg     float64
}

// Available reports whether the driver is inside their shift and has headroom.
func (d *Driver) Available(now time.Time) bool {
	return !now.Before(d.AvailableFrom) &&
		!now.After(d.AvailableTo) &&
		len(d.CurrentOrders) < d.MaxOrders
}

// RemainingCapacity returns the volume and weight the driver can still take on.
func (d *Driver) RemainingCapacity() (volumeL, weightKg float64) {
	return d.CapacityL - d.carriedL, d.MaxWeightKg - d.carriedKg
}

// CanCarry checks capacity and headroom for one more parcel.
func (d *Driver) CanCarry(volumeL, weightKg float64) bool {
	if len(d.CurrentOrders) >= d.MaxOrders {
		return false
	}
	remV, remW := d.RemainingCapacity()
	return volumeL <= remV && weightKg <= remW
}

// AcceptOrder adds the order to the driver's load. The max_orders invariant
// is enforced here so no caller can push a driver past capacity.
func (d *Driver) AcceptOrder(id types.ID, volumeL, weightKg float64) error {
	if !d.CanCarry(volumeL, weightKg) {
		return fmt.Errorf("driver %s cannot carry order %s: at capacity", d.ID, id)
	}
	d.CurrentOrders = append(d.CurrentOrders, id)
	d.carriedL += volumeL
	d.carriedKg += weightKg
	return nil
}

// CompleteOrder releases the order's load and credits the wage.
func (d *Driver) CompleteOrder(id types.ID, volumeL, weightKg, earnings float64) {
	for i, oid := range d.CurrentOrders {
		if oid == id {
			d.CurrentOrders = append(d.CurrentOrders[:i], d.CurrentOrders[i+1:]...)
			d.carriedL -= volumeL
			d.carriedKg -= weightKg
			d.Earnings += earnings
			return
		}
	}
}

// AtCapacity reports whether the driver can take no further orders.
func (d *Driver) AtCapacity() bool {
	return len(d.CurrentOrders) >= d.MaxOrders
}

// EmissionsKgPerKm returns the CO2 factor for the driver's vehicle.
func (v VehicleType) EmissionsKgPerKm() float64 {
	switch v {
	case VehicleBike:
		return 0.0
	case VehicleMotorbike:
		return 0.08
	case VehicleVan:
		return 0.18
	case VehicleBus, VehicleTruck:
		return 0.18
	default:
		return 0.12
	}
}
