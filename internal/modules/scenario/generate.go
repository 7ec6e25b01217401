// README: Seeded scenario generation: orders, drivers and fleet for one run.
package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"crowdship/internal/config"
	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/geo"
	"crowdship/internal/modules/order"
	"crowdship/internal/modules/sim"
	"crowdship/internal/types"
)

// Store and transit-hub anchor points. Pickups originate at stores; metro and
// courier drivers start their shifts at hubs.
var (
	storeAnchors = []types.Point{
		{Lat: 33.6844, Lng: 73.0479}, // Blue Area
		{Lat: 33.5651, Lng: 73.0169}, // Rawalpindi commercial area
	}
	hubAnchors = []types.Point{
		{Lat: 33.6844, Lng: 73.0479},
		{Lat: 33.7294, Lng: 73.0931},
		{Lat: 33.5651, Lng: 73.0169},
	}
)

// Delivery window slots offered to customers, hours of day.
var windowSlots = [][2]int{
	{8, 12},
	{12, 16},
	{16, 20},
	{20, 22},
}

// Generator produces a reproducible population from a seed. Two generators
// with equal config emit identical entities.
type Generator struct {
	cfg config.Config
	rng *rand.Rand
}

func NewGenerator(cfg config.Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Sim.Seed)),
	}
}

// Populate fills the state with orders, drivers and the dedicated fleet.
func (g *Generator) Populate(st *sim.State) {
	for i := 0; i < g.cfg.Generation.Orders; i++ {
		st.AddOrder(g.Order(fmt.Sprintf("order_%d", i)))
	}
	for i := 0; i < g.cfg.Generation.MetroDrivers; i++ {
		st.AddDriver(g.metroDriver(fmt.Sprintf("metro_driver_%d", i)))
	}
	for i := 0; i < g.cfg.Generation.CourierDrivers; i++ {
		st.AddDriver(g.courierDriver(fmt.Sprintf("courier_driver_%d", i)))
	}
	for i := 0; i < g.cfg.Generation.TruckDrivers; i++ {
		st.AddDriver(g.truckDriver(fmt.Sprintf("truck_driver_%d", i)))
	}
	for i := 0; i < g.cfg.Generation.FleetVehicles; i++ {
		st.AddFleetVehicle(g.fleetVehicle(fmt.Sprintf("fleet_%d", i)))
	}
}

// Order draws one store-anchored order with survey-derived size and service
// distributions.
func (g *Generator) Order(id string) *order.Order {
	pickup := storeAnchors[g.rng.Intn(len(storeAnchors))]
	drop := g.cityPoint()

	slot := windowSlots[g.rng.Intn(len(windowSlots))]
	day := g.cfg.Sim.Start.Truncate(24 * time.Hour)
	windowStart := day.Add(time.Duration(slot[0]) * time.Hour)
	windowEnd := day.Add(time.Duration(slot[1]) * time.Hour)
	latestDeparture := windowEnd.Add(-time.Hour)

	size := g.parcelSize()
	volumeL, weightKg := g.parcelDimensions(size)
	service := g.serviceLevel()

	distKm := geo.HaversineKm(pickup, drop)

	return &order.Order{
		ID:              types.ID(id),
		CreatedAt:       g.cfg.Sim.Start,
		Pickup:          pickup,
		Drop:            drop,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		LatestDeparture: latestDeparture,
		VolumeL:         volumeL,
		WeightKg:        weightKg,
		SizeClass:       size,
		ServiceLevel:    service,
		BasePrice:       basePrice(distKm, size, service),
		Status:          order.StatusPublished,
	}
}

// parcelSize draws from the observed demand mix: mostly M and L parcels.
func (g *Generator) parcelSize() order.ParcelSize {
	switch r := g.rng.Float64(); {
	case r < 0.2:
		return order.SizeS
	case r < 0.6:
		return order.SizeM
	case r < 0.9:
		return order.SizeL
	default:
		return order.SizeXL
	}
}

func (g *Generator) parcelDimensions(size order.ParcelSize) (volumeL, weightKg float64) {
	switch size {
	case order.SizeS:
		return g.between(1, 5), g.between(0.5, 2)
	case order.SizeM:
		return g.between(5, 15), g.between(2, 8)
	case order.SizeL:
		return g.between(15, 30), g.between(8, 20)
	default:
		return g.between(30, 50), g.between(20, 50)
	}
}

// serviceLevel skews heavily toward same-day, matching customer preference.
func (g *Generator) serviceLevel() order.ServiceLevel {
	switch r := g.rng.Float64(); {
	case r < 0.65:
		return order.ServiceSameDay
	case r < 0.90:
		return order.ServiceNextDay
	default:
		return order.ServiceFlex
	}
}

// basePrice is the list price quoted at publication, before surge. Bounded to
// the realistic delivery fee band.
func basePrice(distKm float64, size order.ParcelSize, service order.ServiceLevel) float64 {
	const ratePerKm = 3.0

	sizeFactor := map[order.ParcelSize]float64{
		order.SizeXS: 0.8,
		order.SizeS:  0.9,
		order.SizeM:  1.0,
		order.SizeL:  1.2,
		order.SizeXL: 1.5,
	}[size]

	serviceFactor := 1.0
	switch service {
	case order.ServiceSameDay:
		serviceFactor = 1.3
	case order.ServiceFlex:
		serviceFactor = 0.8
	}

	price := ratePerKm * distKm * sizeFactor * serviceFactor
	return math.Max(50, math.Min(200, price))
}

// metroDriver rides a fixed transit route all day with a modest parcel rack.
func (g *Generator) metroDriver(id string) *driver.Driver {
	at := hubAnchors[g.rng.Intn(len(hubAnchors))]
	day := g.cfg.Sim.Start.Truncate(24 * time.Hour)

	return &driver.Driver{
		ID:               types.ID(id),
		Class:            driver.ClassMetro,
		VehicleType:      driver.VehicleBus,
		HomeBase:         at,
		Location:         at,
		AvailableFrom:    day.Add(8 * time.Hour),
		AvailableTo:      day.Add(20 * time.Hour),
		CapacityL:        200,
		MaxWeightKg:      100,
		SpeedKmh:         g.between(25, 40),
		Rating:           4.5,
		AcceptanceRate7d: 0.85,
		MaxOrders:        3,
	}
}

// courierDriver works flexible hours on a motorbike or small car and carries
// dense multi-stop rounds.
func (g *Generator) courierDriver(id string) *driver.Driver {
	at := hubAnchors[g.rng.Intn(len(hubAnchors))]
	day := g.cfg.Sim.Start.Truncate(24 * time.Hour)
	startHour := 8 + g.rng.Intn(5) // 8-12
	endHour := 16 + g.rng.Intn(7)  // 16-22

	vehicle := driver.VehicleMotorbike
	capacityL, maxKg := 15.0+g.rng.Float64()*10, 25.0
	if g.rng.Float64() < 0.5 {
		vehicle = driver.VehicleCar
		capacityL, maxKg = 50+g.rng.Float64()*50, 100.0
	}

	return &driver.Driver{
		ID:               types.ID(id),
		Class:            driver.ClassCourier,
		VehicleType:      vehicle,
		HomeBase:         g.cityPoint(),
		Location:         at,
		AvailableFrom:    day.Add(time.Duration(startHour) * time.Hour),
		AvailableTo:      day.Add(time.Duration(endHour) * time.Hour),
		CapacityL:        capacityL,
		MaxWeightKg:      maxKg,
		SpeedKmh:         g.between(25, 40),
		Rating:           4.5,
		AcceptanceRate7d: 0.90,
		MaxOrders:        12,
	}
}

// truckDriver handles the bulky tail during business hours.
func (g *Generator) truckDriver(id string) *driver.Driver {
	at := storeAnchors[g.rng.Intn(len(storeAnchors))]
	day := g.cfg.Sim.Start.Truncate(24 * time.Hour)

	return &driver.Driver{
		ID:               types.ID(id),
		Class:            driver.ClassTruck,
		VehicleType:      driver.VehicleTruck,
		HomeBase:         at,
		Location:         at,
		AvailableFrom:    day.Add(9 * time.Hour),
		AvailableTo:      day.Add(18 * time.Hour),
		CapacityL:        800,
		MaxWeightKg:      400,
		SpeedKmh:         g.between(25, 35),
		Rating:           4.0,
		AcceptanceRate7d: 0.70,
		MaxOrders:        2,
	}
}

func (g *Generator) fleetVehicle(id string) *driver.FleetVehicle {
	return &driver.FleetVehicle{
		ID:          types.ID(id),
		CapacityL:   500,
		MaxWeightKg: 200,
		CostPerKm:   2.0,
		CostPerMin:  0.1,
		Location:    types.Point{Lat: g.cfg.Generation.CenterLat, Lng: g.cfg.Generation.CenterLng},
		Available:   true,
	}
}

// cityPoint draws a uniform point within the service radius, clamped to the
// city bounding box.
func (g *Generator) cityPoint() types.Point {
	angle := g.rng.Float64() * 2 * math.Pi
	radius := g.rng.Float64() * g.cfg.Generation.RadiusKm

	centerLat := g.cfg.Generation.CenterLat
	centerLng := g.cfg.Generation.CenterLng

	latOffset := radius * math.Cos(angle) / 111.0
	lngOffset := radius * math.Sin(angle) / (111.0 * math.Cos(centerLat*math.Pi/180.0))

	latOffset = clamp(latOffset, -0.25, 0.25)
	lngOffset = clamp(lngOffset, -0.25, 0.25)

	return types.Point{Lat: centerLat + latOffset, Lng: centerLng + lngOffset}
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
