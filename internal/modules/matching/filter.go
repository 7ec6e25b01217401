// README: Feasibility filter; decides pair admissibility and scores desirability.
package matching

import (
	"time"

	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/geo"
	"crowdship/internal/modules/order"
)

// Score weights. Distance dominates, then urgency and driver quality.
const (
	weightDistance    = 0.4
	weightRating      = 0.2
	weightAcceptance  = 0.1
	weightUrgency     = 0.2
	weightUtilisation = 0.1
)

// load is tentative capacity already promised to a driver within a single
// matching pass, before any entity state changes.
type load struct {
	count    int
	volumeL  float64
	weightKg float64
}

// Evaluate checks whether the driver can take the order right now and, if so,
// scores the pair. Pure: neither entity is touched, so it can be re-run on the
// same inputs any number of times.
//
// The checks short-circuit in a fixed order: capacity, headroom, pickup
// reachability, delivery window, detour bound.
func Evaluate(o *order.Order, d *driver.Driver, now time.Time, maxDetourKm float64) (float64, bool) {
	return evaluateWithLoad(o, d, now, maxDetourKm, load{})
}

func evaluateWithLoad(o *order.Order, d *driver.Driver, now time.Time, maxDetourKm float64, extra load) (float64, bool) {
	remV, remW := d.RemainingCapacity()
	remV -= extra.volumeL
	remW -= extra.weightKg
	if o.VolumeL > remV || o.WeightKg > remW {
		return 0, false
	}

	if len(d.CurrentOrders)+extra.count >= d.MaxOrders {
		return 0, false
	}

	toPickupKm := geo.HaversineKm(d.Location, o.Pickup)
	pickupArrival := now.Add(geo.TravelTime(toPickupKm, d.SpeedKmh))
	if pickupArrival.After(o.LatestDeparture) {
		return 0, false
	}

	directKm := geo.HaversineKm(o.Pickup, o.Drop)
	completion := pickupArrival.Add(geo.TravelTime(directKm, d.SpeedKmh))
	if completion.After(o.WindowEnd) {
		return 0, false
	}

	totalKm := toPickupKm + directKm
	if totalKm-directKm > maxDetourKm {
		return 0, false
	}

	return score(o, d, now, totalKm), true
}

// score combines distance, driver quality, urgency and capacity efficiency
// into one desirability figure. Higher is better.
func score(o *order.Order, d *driver.Driver, now time.Time, totalKm float64) float64 {
	distanceScore := 100.0 / (totalKm + 1.0)

	// Ratings live in [3,5]; map onto [0,1].
	ratingScore := (d.Rating - 3.0) / 2.0
	if ratingScore < 0 {
		ratingScore = 0
	}

	hoursToDeadline := o.LatestDeparture.Sub(now).Hours()
	urgency := 1.0 - hoursToDeadline/24.0
	if urgency < 0 {
		urgency = 0
	}

	var utilisation float64
	if d.CapacityL > 0 && d.MaxWeightKg > 0 {
		utilisation = (o.VolumeL/d.CapacityL + o.WeightKg/d.MaxWeightKg) / 2.0
	}

	return weightDistance*distanceScore +
		weightRating*ratingScore +
		weightAcceptance*d.AcceptanceRate7d +
		weightUrgency*urgency +
		weightUtilisation*utilisation
}
