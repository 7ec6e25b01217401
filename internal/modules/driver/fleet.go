// README: Dedicated fleet vehicles, the fallback for orders nearing expiry.
package driver

import (
	"crowdship/internal/types"
)

// FleetVehicle is dispatched outside the regular matching path. It is either
// fully available or fully dispatched; there is no partial concurrency.
type FleetVehicle struct {
	ID          types.ID
	CapacityL   float64
	MaxWeightKg float64
	CostPerKm   float64
	CostPerMin  float64
	Location    types.Point
	Available   bool
}

// CanCarry checks the parcel against the vehicle's capacity.
func (f *FleetVehicle) CanCarry(volumeL, weightKg float64) bool {
	return volumeL <= f.CapacityL && weightKg <= f.MaxWeightKg
}

// TripCost prices a fleet delivery by distance and time.
func (f *FleetVehicle) TripCost(distanceKm, minutes float64) float64 {
	return distanceKm*f.CostPerKm + minutes*f.CostPerMin
}

// Dispatch marks the vehicle busy.
func (f *FleetVehicle) Dispatch() { f.Available = false }

// Release returns the vehicle to the pool at the given position.
func (f *FleetVehicle) Release(at types.Point) {
	f.Available = true
	f.Location = at
}
