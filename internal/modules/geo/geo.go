// README: Pure geographic and time-of-day computation helpers.
package geo

import (
	"math"
	"time"

	"crowdship/internal/types"
)

const (
	earthRadiusKm = 6371.0
	// kmPerDegree approximates one degree of latitude.
	kmPerDegree = 111.0
)

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// RoadDistanceKm inflates the straight-line distance by a road-type factor:
// long hops run mostly on highways, short ones on local streets.
func RoadDistanceKm(a, b types.Point) float64 {
	d := HaversineKm(a, b)
	switch {
	case d > 10:
		return d * 1.1
	case d > 5:
		return d * 1.3
	default:
		return d * 1.5
	}
}

// TravelTime converts a distance into a duration at the given speed.
// Non-positive speeds fall back to a 1 km/h floor instead of dividing by zero.
func TravelTime(distanceKm, speedKmh float64) time.Duration {
	if speedKmh <= 0 {
		speedKmh = 1
	}
	minutes := distanceKm / speedKmh * 60
	return time.Duration(minutes * float64(time.Minute))
}

// TimeSlot is a coarse time-of-day bucket used for surge pricing.
type TimeSlot string

const (
	SlotMorning TimeSlot = "morning" // 08-10, rush
	SlotMidday  TimeSlot = "midday"  // 10-16
	SlotEvening TimeSlot = "evening" // 16-20, rush
	SlotNight   TimeSlot = "night"   // everything else
)

// SlotOf classifies a wall-clock time into its surge slot.
func SlotOf(t time.Time) TimeSlot {
	switch h := t.Hour(); {
	case h >= 8 && h < 10:
		return SlotMorning
	case h >= 10 && h < 16:
		return SlotMidday
	case h >= 16 && h < 20:
		return SlotEvening
	default:
		return SlotNight
	}
}

// Cell is a coarse square on the pricing/bundling grid.
type Cell struct {
	Row int
	Col int
}

// CellOf quantises a point onto a grid of cellKm-sized squares centred on
// center. Cells are used both for surge lookup and for clustering drops.
func CellOf(p, center types.Point, cellKm float64) Cell {
	if cellKm <= 0 {
		cellKm = 1
	}
	latOffset := p.Lat - center.Lat
	lngOffset := p.Lng - center.Lng

	row := int(latOffset / (cellKm / kmPerDegree))
	col := int(lngOffset / (cellKm / (kmPerDegree * math.Cos(degreesToRadians(center.Lat)))))
	return Cell{Row: row, Col: col}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
