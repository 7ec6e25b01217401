package driver

import (
	"testing"
	"time"

	"crowdship/internal/types"
)

func sampleDriver() *Driver {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return &Driver{
		ID:               types.ID("driver_0"),
		Class:            ClassCourier,
		VehicleType:      VehicleCar,
		AvailableFrom:    base,
		AvailableTo:      base.Add(12 * time.Hour),
		CapacityL:        100,
		MaxWeightKg:      50,
		SpeedKmh:         30,
		Rating:           4.5,
		AcceptanceRate7d: 0.9,
		MaxOrders:        2,
	}
}

func TestDriver_CapacityInvariant(t *testing.T) {
	d := sampleDriver()

	if err := d.AcceptOrder("o1", 40, 10); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if err := d.AcceptOrder("o2", 40, 10); err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if !d.AtCapacity() {
		t.Fatalf("driver with max_orders=2 holding 2 orders must be at capacity")
	}
	if err := d.AcceptOrder("o3", 1, 1); err == nil {
		t.Fatalf("third accept must violate max_orders")
	}
	if len(d.CurrentOrders) != 2 {
		t.Fatalf("current orders = %d, want 2", len(d.CurrentOrders))
	}
}

func TestDriver_VolumeAndWeightTracking(t *testing.T) {
	d := sampleDriver()
	d.MaxOrders = 10

	if err := d.AcceptOrder("o1", 80, 10); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if d.CanCarry(30, 5) {
		t.Fatalf("30L must not fit with only 20L remaining")
	}
	if !d.CanCarry(20, 5) {
		t.Fatalf("20L should fit exactly")
	}

	d.CompleteOrder("o1", 80, 10, 12.5)
	remV, remW := d.RemainingCapacity()
	if remV != 100 || remW != 50 {
		t.Fatalf("capacity not restored: %fL %fkg", remV, remW)
	}
	if d.Earnings != 12.5 {
		t.Fatalf("earnings = %f, want 12.5", d.Earnings)
	}
}

func TestDriver_Available(t *testing.T) {
	d := sampleDriver()
	beforeShift := d.AvailableFrom.Add(-time.Minute)
	if d.Available(beforeShift) {
		t.Fatalf("driver available before shift start")
	}
	if !d.Available(d.AvailableFrom) {
		t.Fatalf("driver unavailable at shift start")
	}
	afterShift := d.AvailableTo.Add(time.Minute)
	if d.Available(afterShift) {
		t.Fatalf("driver available after shift end")
	}
}

func TestFleetVehicle_Cycle(t *testing.T) {
	f := &FleetVehicle{
		ID:          types.ID("fleet_0"),
		CapacityL:   500,
		MaxWeightKg: 200,
		CostPerKm:   2,
		CostPerMin:  0.1,
		Available:   true,
	}

	if !f.CanCarry(400, 150) {
		t.Fatalf("parcel within capacity rejected")
	}
	if f.CanCarry(600, 10) {
		t.Fatalf("oversized parcel accepted")
	}
	if cost := f.TripCost(10, 30); cost != 23 {
		t.Fatalf("trip cost = %f, want 23", cost)
	}

	f.Dispatch()
	if f.Available {
		t.Fatalf("dispatched vehicle still available")
	}
	dest := types.Point{Lat: 33.7, Lng: 73.1}
	f.Release(dest)
	if !f.Available || f.Location != dest {
		t.Fatalf("release did not restore availability at destination")
	}
}

func TestFleetStore_FirstAvailable(t *testing.T) {
	s := NewFleetStore()
	s.Add(&FleetVehicle{ID: "f1", CapacityL: 10, MaxWeightKg: 5, Available: true})
	s.Add(&FleetVehicle{ID: "f2", CapacityL: 500, MaxWeightKg: 200, Available: true})

	got := s.FirstAvailable(100, 50)
	if got == nil || got.ID != "f2" {
		t.Fatalf("expected f2, got %v", got)
	}

	got.Dispatch()
	if s.FirstAvailable(100, 50) != nil {
		t.Fatalf("dispatched vehicle must not be offered")
	}
}

func TestStore_AvailablePool(t *testing.T) {
	s := NewStore()
	d := sampleDriver()
	s.Add(d)
	s.MarkAvailable(d.ID)

	now := d.AvailableFrom.Add(time.Hour)
	if got := s.Available(now); len(got) != 1 {
		t.Fatalf("available = %d, want 1", len(got))
	}

	s.MarkBusy(d.ID)
	if got := s.Available(now); len(got) != 0 {
		t.Fatalf("busy driver still offered")
	}
}
