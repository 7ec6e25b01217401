package sim

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"crowdship/internal/config"
	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/order"
	"crowdship/internal/types"
)

var (
	center = types.Point{Lat: 33.7294, Lng: 73.0931}
	start  = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
)

func pt(northKm, eastKm float64) types.Point {
	return types.Point{
		Lat: center.Lat + northKm/111.0,
		Lng: center.Lng + eastKm/(111.0*math.Cos(center.Lat*math.Pi/180.0)),
	}
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Sim = config.SimulationConfig{
		Start:            start,
		Horizon:          2 * time.Hour,
		TickInterval:     15 * time.Minute,
		MaxDeliveryTime:  30 * time.Minute,
		PostHorizonGrace: 5 * time.Minute,
	}
	cfg.Generation.CenterLat = center.Lat
	cfg.Generation.CenterLng = center.Lng
	cfg.Matching = config.MatchingConfig{
		MaxDetourKm:    50,
		BundleLimit:    5,
		AllowBundling:  true,
		ClusterCellKm:  5,
		FleetCutoffMin: 30,
	}
	cfg.Pricing = config.PricingConfig{Mode: "dynamic", WageMode: "dynamic", CommissionRate: 0.15}
	return cfg
}

func seedOrder(id string, pickup, drop types.Point) *order.Order {
	return &order.Order{
		ID:              types.ID(id),
		CreatedAt:       start,
		Pickup:          pickup,
		Drop:            drop,
		WindowStart:     start,
		WindowEnd:       start.Add(4 * time.Hour),
		LatestDeparture: start.Add(time.Hour),
		VolumeL:         10,
		WeightKg:        5,
		SizeClass:       order.SizeM,
		ServiceLevel:    order.ServiceSameDay,
		Status:          order.StatusPublished,
	}
}

func seedDriver(id string, at types.Point) *driver.Driver {
	return &driver.Driver{
		ID:               types.ID(id),
		Class:            driver.ClassCourier,
		VehicleType:      driver.VehicleMotorbike,
		Location:         at,
		AvailableFrom:    start,
		AvailableTo:      start.Add(10 * time.Hour),
		CapacityL:        120,
		MaxWeightKg:      60,
		SpeedKmh:         30,
		Rating:           4.5,
		AcceptanceRate7d: 0.8,
		MaxOrders:        3,
	}
}

// ---------------------------------------------------------------------------
// Happy path
// ---------------------------------------------------------------------------

func TestRun_SingleOrderSingleDriverDelivers(t *testing.T) {
	st := NewState(start)
	o := seedOrder("ord-1", pt(2, 0), pt(2, 5))
	st.AddOrder(o)
	d := seedDriver("drv-1", center)
	st.AddDriver(d)

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()

	snap, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusDelivered {
		t.Fatalf("order status = %s, want delivered", o.Status)
	}
	if o.AssignedDriver != d.ID {
		t.Fatalf("order carried by %s, want %s", o.AssignedDriver, d.ID)
	}
	if o.FinalPrice <= 0 {
		t.Fatalf("delivered order has no price")
	}
	if o.PickedUpAt == nil || o.DeliveredAt == nil || o.PickedUpAt.After(*o.DeliveredAt) {
		t.Fatalf("pickup/delivery stamps inconsistent: %v / %v", o.PickedUpAt, o.DeliveredAt)
	}
	if d.Earnings < 1.0 {
		t.Fatalf("driver earned %f, want at least the wage floor", d.Earnings)
	}
	if snap.Delivered != 1 || snap.MatchRate != 1.0 {
		t.Fatalf("snapshot delivered=%d match_rate=%f", snap.Delivered, snap.MatchRate)
	}
	if len(d.CurrentOrders) != 0 {
		t.Fatalf("driver still carries %v after completion", d.CurrentOrders)
	}
}

func TestRun_UnreachableOrderExpires(t *testing.T) {
	st := NewState(start)
	o := seedOrder("ord-1", pt(30, 0), pt(30, 3))
	o.LatestDeparture = start.Add(10 * time.Minute)
	st.AddOrder(o)
	st.AddDriver(seedDriver("drv-1", center))

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusExpired {
		t.Fatalf("order status = %s, want expired", o.Status)
	}
}

// ---------------------------------------------------------------------------
// Headroom and conservation
// ---------------------------------------------------------------------------

func TestTick_MaxOrdersOneAcceptsExactlyOne(t *testing.T) {
	st := NewState(start)
	a := seedOrder("ord-a", pt(1, 0), pt(1, 3))
	b := seedOrder("ord-b", pt(0, 1), pt(3, 1))
	st.AddOrder(a)
	st.AddOrder(b)
	d := seedDriver("drv-1", center)
	d.MaxOrders = 1
	st.AddDriver(d)

	e := NewEngine(testConfig(), st, nil)
	// One tick only; the follow-up events drain afterwards.
	e.Schedule(Event{At: start, Kind: KindTick})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	delivered, published := 0, 0
	for _, o := range []*order.Order{a, b} {
		switch o.Status {
		case order.StatusDelivered:
			delivered++
		case order.StatusPublished:
			published++
		}
	}
	if delivered != 1 || published != 1 {
		t.Fatalf("got %d delivered, %d published; want exactly one of each", delivered, published)
	}
}

func TestRun_EveryOrderReachesExactlyOneOutcome(t *testing.T) {
	st := NewState(start)
	orders := []*order.Order{
		seedOrder("ord-1", pt(1, 0), pt(1, 3)),
		seedOrder("ord-2", pt(0, 1), pt(3, 1)),
		seedOrder("ord-3", pt(2, 2), pt(4, 2)),
	}
	// Nothing can carry this one; it must expire, not vanish.
	orders[2].VolumeL = 10_000
	for _, o := range orders {
		st.AddOrder(o)
	}
	st.AddDriver(seedDriver("drv-1", center))
	st.AddDriver(seedDriver("drv-2", pt(0, 2)))

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()
	snap, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	total := snap.Published + snap.Accepted + snap.Delivered + snap.Expired + snap.Cancelled
	if total != len(orders) {
		t.Fatalf("status counts sum to %d, want %d", total, len(orders))
	}
	if snap.Delivered != 2 {
		t.Fatalf("delivered = %d, want 2", snap.Delivered)
	}
	if orders[2].Status != order.StatusExpired {
		t.Fatalf("oversized order status = %s, want expired", orders[2].Status)
	}
}

// ---------------------------------------------------------------------------
// Fleet fallback
// ---------------------------------------------------------------------------

func TestRun_FleetRescuesOrderNearDeadline(t *testing.T) {
	st := NewState(start)
	o := seedOrder("ord-1", pt(2, 0), pt(2, 4))
	o.LatestDeparture = start.Add(20 * time.Minute)
	st.AddOrder(o)
	f := &driver.FleetVehicle{
		ID:          "van-1",
		CapacityL:   2000,
		MaxWeightKg: 800,
		CostPerKm:   0.6,
		CostPerMin:  0.1,
		Location:    center,
		Available:   true,
	}
	st.AddFleetVehicle(f)

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusDelivered {
		t.Fatalf("order status = %s, want delivered by fleet", o.Status)
	}
	if !strings.HasPrefix(string(o.AssignedDriver), "fleet:") {
		t.Fatalf("carrier = %s, want a fleet id", o.AssignedDriver)
	}
	if !f.Available {
		t.Fatalf("fleet vehicle not released after completion")
	}
	if st.FleetCost <= 0 {
		t.Fatalf("fleet trip cost not recorded")
	}
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

func TestRun_CancellationBeforePickupReleasesDriver(t *testing.T) {
	st := NewState(start)
	o := seedOrder("ord-1", pt(2, 0), pt(2, 5))
	st.AddOrder(o)
	d := seedDriver("drv-1", center)
	st.AddDriver(d)

	e := NewEngine(testConfig(), st, nil)
	e.Schedule(Event{At: start, Kind: KindTick})
	e.Schedule(Event{
		At:      start.Add(2 * time.Minute),
		Kind:    KindCancellation,
		OrderID: o.ID,
		Reason:  "customer changed their mind",
	})

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusCancelled {
		t.Fatalf("order status = %s, want cancelled", o.Status)
	}
	if o.CancelReason == "" {
		t.Fatalf("cancel reason lost")
	}
	if len(d.CurrentOrders) != 0 {
		t.Fatalf("driver still holds %v after cancellation", d.CurrentOrders)
	}
	if d.Earnings != 0 {
		t.Fatalf("driver paid %f for a cancelled order", d.Earnings)
	}
}

func TestRun_DriverWithdrawalRequeuesCarriedOrder(t *testing.T) {
	st := NewState(start)
	o := seedOrder("ord-1", pt(2, 0), pt(2, 4))
	st.AddOrder(o)
	// Far enough away that the pickup happens after the withdrawal.
	far := seedDriver("drv-far", pt(14, 0))
	st.AddDriver(far)

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()
	e.Schedule(Event{
		At:       start.Add(5 * time.Minute),
		Kind:     KindCancellation,
		DriverID: far.ID,
	})
	near := seedDriver("drv-near", center)
	e.Schedule(Event{At: start.Add(10 * time.Minute), Kind: KindDriverArrival, Driver: near})

	snap, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusDelivered {
		t.Fatalf("order status = %s, want delivered after re-matching", o.Status)
	}
	if o.AssignedDriver != near.ID {
		t.Fatalf("order carried by %s, want %s", o.AssignedDriver, near.ID)
	}
	if len(far.CurrentOrders) != 0 || far.Earnings != 0 {
		t.Fatalf("withdrawn driver kept load %v or earned %f", far.CurrentOrders, far.Earnings)
	}
	if near.Earnings <= 0 {
		t.Fatalf("replacement driver earned nothing")
	}
	if snap.Cancelled != 0 {
		t.Fatalf("withdrawal cancelled %d orders, want none", snap.Cancelled)
	}
}

func TestRun_CancelledFleetOrderReleasesVehicle(t *testing.T) {
	st := NewState(start)
	// Long trip so the cancellation lands before the completion event.
	o := seedOrder("ord-1", pt(10, 0), pt(10, 10))
	o.LatestDeparture = start.Add(20 * time.Minute)
	st.AddOrder(o)
	f := &driver.FleetVehicle{
		ID:          "van-1",
		CapacityL:   2000,
		MaxWeightKg: 800,
		CostPerKm:   0.6,
		CostPerMin:  0.1,
		Location:    center,
		Available:   true,
	}
	st.AddFleetVehicle(f)

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()
	e.Schedule(Event{
		At:      start.Add(5 * time.Minute),
		Kind:    KindCancellation,
		OrderID: o.ID,
		Reason:  "customer changed their mind",
	})
	// A second rescue late in the run only works if the vehicle came back.
	o2 := seedOrder("ord-2", pt(2, 0), pt(2, 3))
	o2.CreatedAt = start.Add(40 * time.Minute)
	o2.LatestDeparture = start.Add(time.Hour)
	e.Schedule(Event{At: start.Add(40 * time.Minute), Kind: KindOrderArrival, Order: o2})

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusCancelled {
		t.Fatalf("order status = %s, want cancelled", o.Status)
	}
	if !f.Available {
		t.Fatalf("fleet vehicle still dispatched after its order was cancelled")
	}
	if o2.Status != order.StatusDelivered {
		t.Fatalf("second order status = %s, want delivered by the released vehicle", o2.Status)
	}
	if st.FleetCost <= 0 {
		t.Fatalf("no trip cost recorded for the second rescue")
	}
}

// ---------------------------------------------------------------------------
// Dynamic arrivals
// ---------------------------------------------------------------------------

func TestRun_MidRunArrivalsJoinTheMarketplace(t *testing.T) {
	st := NewState(start)

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()

	o := seedOrder("ord-late", pt(1, 0), pt(1, 3))
	o.CreatedAt = start.Add(20 * time.Minute)
	o.LatestDeparture = start.Add(90 * time.Minute)
	e.Schedule(Event{At: start.Add(20 * time.Minute), Kind: KindOrderArrival, Order: o})
	e.Schedule(Event{At: start.Add(10 * time.Minute), Kind: KindDriverArrival, Driver: seedDriver("drv-late", center)})

	snap, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if o.Status != order.StatusDelivered {
		t.Fatalf("late order status = %s, want delivered", o.Status)
	}
	if snap.TotalOrders != 1 {
		t.Fatalf("snapshot sees %d orders, want 1", snap.TotalOrders)
	}
}

func TestRun_ContextCancellationStopsTheLoop(t *testing.T) {
	st := NewState(start)
	st.AddOrder(seedOrder("ord-1", pt(1, 0), pt(1, 3)))
	st.AddDriver(seedDriver("drv-1", center))

	e := NewEngine(testConfig(), st, nil)
	e.ScheduleTicks()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx); err == nil {
		t.Fatalf("expected the context error")
	}
}
