// README: Stateless KPI aggregation over the full entity collections.
package kpi

import (
	"strings"

	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/geo"
	"crowdship/internal/modules/order"
	"crowdship/internal/types"
)

// Detour samples outside this band are measurement noise (negative detours,
// cross-city outliers) and are dropped from the average.
const (
	minDetourKm = 0.0
	maxDetourKm = 50.0
)

// Snapshot is one full recomputation of the run's indicators. Financial
// totals count delivered orders only.
type Snapshot struct {
	TotalOrders int
	Published   int
	Accepted    int
	Delivered   int
	Expired     int
	Cancelled   int

	MatchRate  float64
	OnTimeRate float64

	Revenue        float64
	Profit         float64
	MarginPct      float64
	DriverEarnings float64
	FleetCost      float64

	TotalDistanceKm float64
	EmissionsKg     float64
	AvgDetourKm     float64
}

// Compute rebuilds the snapshot from current entity state. It reads, never
// writes: calling it twice without a state change yields identical output,
// in any iteration order.
func Compute(orders map[types.ID]*order.Order, drivers map[types.ID]*driver.Driver,
	commissionRate, fleetCost float64) Snapshot {

	s := Snapshot{FleetCost: fleetCost}

	var (
		onTime      int
		detourSum   float64
		detourCount int
	)

	for _, o := range orders {
		s.TotalOrders++
		switch o.Status {
		case order.StatusPublished:
			s.Published++
		case order.StatusAccepted:
			s.Accepted++
		case order.StatusExpired:
			s.Expired++
		case order.StatusCancelled:
			s.Cancelled++
		case order.StatusDelivered:
			s.Delivered++

			if o.DeliveredAt != nil && !o.DeliveredAt.After(o.WindowEnd) {
				onTime++
			}

			price := o.FinalPrice
			if price == 0 {
				price = o.BasePrice
			}
			s.Revenue += price
			s.Profit += price * commissionRate

			directKm := geo.HaversineKm(o.Pickup, o.Drop)
			actualKm := o.ActualDistanceKm
			if actualKm == 0 {
				actualKm = directKm
			}
			s.TotalDistanceKm += actualKm
			s.EmissionsKg += actualKm * emissionFactor(o.AssignedDriver, drivers)

			if detour := actualKm - directKm; detour >= minDetourKm && detour <= maxDetourKm {
				detourSum += detour
				detourCount++
			}
		}
	}

	for _, d := range drivers {
		s.DriverEarnings += d.Earnings
	}

	if s.TotalOrders > 0 {
		s.MatchRate = float64(s.Accepted+s.Delivered) / float64(s.TotalOrders)
	}
	if s.Delivered > 0 {
		s.OnTimeRate = float64(onTime) / float64(s.Delivered)
	}
	if detourCount > 0 {
		s.AvgDetourKm = detourSum / float64(detourCount)
	}
	if s.Revenue > 0 {
		s.MarginPct = s.Profit / s.Revenue * 100
	}
	return s
}

// emissionFactor resolves the CO2 factor for whoever carried the order.
// Fleet deliveries run on vans.
func emissionFactor(carrier types.ID, drivers map[types.ID]*driver.Driver) float64 {
	if strings.HasPrefix(string(carrier), "fleet:") {
		return driver.VehicleVan.EmissionsKgPerKm()
	}
	if d, ok := drivers[carrier]; ok {
		return d.VehicleType.EmissionsKgPerKm()
	}
	return driver.VehicleCar.EmissionsKgPerKm()
}
