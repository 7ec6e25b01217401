// README: The discrete-event engine: pops events, advances the clock, applies transitions.
package sim

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"crowdship/internal/config"
	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/geo"
	"crowdship/internal/modules/kpi"
	"crowdship/internal/modules/matching"
	"crowdship/internal/modules/order"
	"crowdship/internal/modules/pricing"
	"crowdship/internal/types"
)

// fleetSpeedKmh is the assumed average speed of dedicated fleet vehicles.
const fleetSpeedKmh = 30.0

// fleetCarrierPrefix distinguishes fleet carrier ids from driver ids on
// delivered orders.
const fleetCarrierPrefix = "fleet:"

func fleetCarrier(vehicleID types.ID) types.ID {
	return types.ID(fleetCarrierPrefix + string(vehicleID))
}

// fleetVehicleID recovers the vehicle id from a fleet carrier id.
func fleetVehicleID(carrier types.ID) (types.ID, bool) {
	if !strings.HasPrefix(string(carrier), fleetCarrierPrefix) {
		return "", false
	}
	return types.ID(strings.TrimPrefix(string(carrier), fleetCarrierPrefix)), true
}

// Engine owns the event loop for one run. Time only advances by popping the
// next event off the queue; there is no other clock.
type Engine struct {
	cfg     config.Config
	state   *State
	queue   *Queue
	matcher *matching.Engine
	policy  *pricing.Policy
	log     *slog.Logger

	end       time.Time
	priceMode pricing.Mode
	wageMode  pricing.Mode
}

func NewEngine(cfg config.Config, state *State, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	center := types.Point{Lat: cfg.Generation.CenterLat, Lng: cfg.Generation.CenterLng}
	return &Engine{
		cfg:       cfg,
		state:     state,
		queue:     NewQueue(),
		matcher:   matching.NewEngine(cfg.Matching, center),
		policy:    pricing.NewPolicy(cfg.Pricing.CommissionRate),
		log:       log,
		end:       cfg.Sim.Start.Add(cfg.Sim.Horizon),
		priceMode: pricing.Mode(cfg.Pricing.Mode),
		wageMode:  pricing.Mode(cfg.Pricing.WageMode),
	}
}

// Schedule inserts an event into the run's queue.
func (e *Engine) Schedule(ev Event) {
	e.queue.Push(ev)
}

// ScheduleTicks lays down the periodic tick events across the whole horizon.
func (e *Engine) ScheduleTicks() {
	n := 0
	for at := e.cfg.Sim.Start; !at.After(e.end); at = at.Add(e.cfg.Sim.TickInterval) {
		e.queue.Push(Event{At: at, Kind: KindTick, Tick: n})
		n++
	}
}

// Run drains the queue. It returns the final KPI snapshot once no events
// remain, or the context error if the caller gave up first.
func (e *Engine) Run(ctx context.Context) (kpi.Snapshot, error) {
	for {
		if err := ctx.Err(); err != nil {
			return e.state.LastKPIs, err
		}
		ev, ok := e.queue.Pop()
		if !ok {
			break
		}
		e.state.Now = ev.At
		e.apply(ev)
	}

	e.state.LastKPIs = e.computeKPIs()
	e.log.Info("run finished",
		"ticks", e.state.Tick,
		"orders", e.state.Orders.Len(),
		"delivered", e.state.LastKPIs.Delivered,
		"match_rate", e.state.LastKPIs.MatchRate,
	)
	return e.state.LastKPIs, nil
}

func (e *Engine) apply(ev Event) {
	switch ev.Kind {
	case KindOrderArrival:
		if ev.Order != nil {
			e.state.AddOrder(ev.Order)
		}
	case KindDriverArrival:
		if ev.Driver != nil {
			e.state.AddDriver(ev.Driver)
		}
	case KindTick:
		e.handleTick(ev.Tick)
	case KindCancellation:
		e.handleCancellation(ev)
	case KindOrderPickup:
		e.handlePickup(ev)
	case KindDeliveryComplete:
		e.handleDelivery(ev)
	}
}

// handleTick is the periodic heartbeat: expire what is overdue, match what is
// waiting, send the fleet after anything about to miss its deadline, then
// refresh the indicators.
func (e *Engine) handleTick(n int) {
	expired := e.expireOverdue()
	matched := e.runMatching()
	dispatched := e.dispatchFleet()

	e.state.Tick++
	e.state.LastKPIs = e.computeKPIs()

	e.log.Debug("tick processed",
		"tick", n,
		"expired", expired,
		"matched", matched,
		"fleet_dispatched", dispatched,
		"unassigned", e.state.Orders.UnassignedCount(),
	)
}

// expireOverdue moves unassigned orders past their departure deadline into
// the terminal EXPIRED state.
func (e *Engine) expireOverdue() int {
	n := 0
	for _, o := range e.state.Orders.Unassigned() {
		if o.Status == order.StatusPublished && o.Expired(e.state.Now) {
			if err := o.Expire(); err != nil {
				continue
			}
			e.state.Orders.Retire(o.ID)
			n++
		}
	}
	return n
}

func (e *Engine) runMatching() int {
	unassigned := e.state.Orders.Unassigned()
	available := e.state.Drivers.Available(e.state.Now)
	if len(unassigned) == 0 || len(available) == 0 {
		return 0
	}

	n := 0
	for _, a := range e.matcher.Match(unassigned, available, e.state.Now) {
		if e.applyAssignment(a) {
			n++
		}
	}
	return n
}

// applyAssignment turns a proposed pairing into state: the order transitions
// to ACCEPTED, the driver takes the load, and the pickup and completion
// events land in the queue. Proposals that went stale since matching ran are
// dropped.
func (e *Engine) applyAssignment(a matching.Assignment) bool {
	o, d := a.Order, a.Driver
	if !o.Assignable(e.state.Now) || !d.CanCarry(o.VolumeL, o.WeightKg) {
		return false
	}

	price := e.policy.Price(o, e.state.Now, e.priceMode)
	if err := o.Accept(d.ID, e.state.Now); err != nil {
		return false
	}
	if err := d.AcceptOrder(o.ID, o.VolumeL, o.WeightKg); err != nil {
		return false
	}
	o.FinalPrice = price

	e.state.Orders.MarkAssigned(o.ID)
	if d.AtCapacity() {
		e.state.Drivers.MarkBusy(d.ID)
	}

	e.scheduleDelivery(o, d)
	return true
}

// scheduleDelivery books the pickup and completion events. Travel time is
// clipped to the configured maximum, and completions that would land past the
// horizon are pulled back to a short grace after now so every accepted order
// resolves within the run.
func (e *Engine) scheduleDelivery(o *order.Order, d *driver.Driver) {
	pickupKm := geo.HaversineKm(d.Location, o.Pickup)
	dropKm := geo.HaversineKm(o.Pickup, o.Drop)

	toPickup := geo.TravelTime(pickupKm, d.SpeedKmh)
	total := toPickup + geo.TravelTime(dropKm, d.SpeedKmh)
	if total > e.cfg.Sim.MaxDeliveryTime {
		total = e.cfg.Sim.MaxDeliveryTime
	}

	completion := e.state.Now.Add(total)
	if completion.After(e.end) {
		completion = e.state.Now.Add(e.cfg.Sim.PostHorizonGrace)
	}
	pickupAt := e.state.Now.Add(toPickup)
	if pickupAt.After(completion) {
		pickupAt = completion
	}

	e.queue.Push(Event{
		At:       pickupAt,
		Kind:     KindOrderPickup,
		OrderID:  o.ID,
		DriverID: d.ID,
	})
	e.queue.Push(Event{
		At:         completion,
		Kind:       KindDeliveryComplete,
		OrderID:    o.ID,
		DriverID:   d.ID,
		DistanceKm: pickupKm + dropKm,
		Minutes:    total.Minutes(),
	})
}

// dispatchFleet sends a dedicated vehicle after unassigned orders within the
// cutoff of their departure deadline. The vehicle stays dispatched until its
// completion event releases it at the drop location.
func (e *Engine) dispatchFleet() int {
	cutoff := time.Duration(e.cfg.Matching.FleetCutoffMin) * time.Minute

	waiting := e.state.Orders.Unassigned()
	sort.Slice(waiting, func(i, j int) bool { return waiting[i].ID < waiting[j].ID })

	n := 0
	for _, o := range waiting {
		if !o.Assignable(e.state.Now) {
			continue
		}
		if o.LatestDeparture.Sub(e.state.Now) > cutoff {
			continue
		}
		f := e.state.Fleet.FirstAvailable(o.VolumeL, o.WeightKg)
		if f == nil {
			continue
		}

		price := e.policy.Price(o, e.state.Now, e.priceMode)
		carrier := fleetCarrier(f.ID)
		if err := o.Accept(carrier, e.state.Now); err != nil {
			continue
		}
		o.FinalPrice = price
		f.Dispatch()
		e.state.Orders.MarkAssigned(o.ID)

		tripKm := geo.HaversineKm(f.Location, o.Pickup) + geo.HaversineKm(o.Pickup, o.Drop)
		total := geo.TravelTime(tripKm, fleetSpeedKmh)
		if total > e.cfg.Sim.MaxDeliveryTime {
			total = e.cfg.Sim.MaxDeliveryTime
		}
		completion := e.state.Now.Add(total)
		if completion.After(e.end) {
			completion = e.state.Now.Add(e.cfg.Sim.PostHorizonGrace)
		}

		e.queue.Push(Event{
			At:         completion,
			Kind:       KindDeliveryComplete,
			OrderID:    o.ID,
			FleetID:    f.ID,
			DistanceKm: tripKm,
			Minutes:    total.Minutes(),
		})
		n++
	}
	return n
}

func (e *Engine) handlePickup(ev Event) {
	o, err := e.state.Orders.Get(ev.OrderID)
	if err != nil || o.Status != order.StatusAccepted {
		return
	}
	if o.AssignedDriver != ev.DriverID {
		// Stale event from a carrier that has since withdrawn.
		return
	}
	at := ev.At
	o.PickedUpAt = &at
	if d, err := e.state.Drivers.Get(ev.DriverID); err == nil {
		d.Location = o.Pickup
	}
}

func (e *Engine) handleDelivery(ev Event) {
	o, err := e.state.Orders.Get(ev.OrderID)
	if err != nil {
		return
	}
	carrier := ev.DriverID
	if ev.FleetID != "" {
		carrier = fleetCarrier(ev.FleetID)
	}
	if o.AssignedDriver != carrier {
		// Stale event from a carrier that has since withdrawn.
		return
	}
	if err := o.Deliver(e.state.Now); err != nil {
		// Cancelled while en route; nothing to complete.
		return
	}
	o.ActualDistanceKm = ev.DistanceKm
	e.state.Orders.Retire(o.ID)

	if ev.FleetID != "" {
		if f, err := e.state.Fleet.Get(ev.FleetID); err == nil {
			e.state.FleetCost += f.TripCost(ev.DistanceKm, ev.Minutes)
			f.Release(o.Drop)
		}
	} else if d, err := e.state.Drivers.Get(ev.DriverID); err == nil {
		wage := e.policy.Wage(ev.DistanceKm, ev.Minutes, e.state.Now, e.wageMode, d.Rating)
		d.CompleteOrder(o.ID, o.VolumeL, o.WeightKg, wage)
		d.Location = o.Drop
		if d.Available(e.state.Now) {
			e.state.Drivers.MarkAvailable(d.ID)
		}
	}

	e.state.CompletedDeliveries++
	e.state.TotalDeliveryKm += ev.DistanceKm
	e.state.TotalDeliveryMin += ev.Minutes
}

// handleCancellation aborts an order, or withdraws a driver and returns
// whatever they were still carrying to the unassigned pool for re-matching.
func (e *Engine) handleCancellation(ev Event) {
	if ev.OrderID != "" {
		o, err := e.state.Orders.Get(ev.OrderID)
		if err != nil {
			return
		}
		e.cancelOrder(o, ev.Reason)
		return
	}

	if ev.DriverID != "" {
		d, err := e.state.Drivers.Get(ev.DriverID)
		if err != nil {
			return
		}
		e.state.Drivers.MarkBusy(d.ID)
		for _, id := range append([]types.ID(nil), d.CurrentOrders...) {
			o, err := e.state.Orders.Get(id)
			if err != nil {
				continue
			}
			if err := o.Release(); err != nil {
				continue
			}
			d.CompleteOrder(o.ID, o.VolumeL, o.WeightKg, 0)
			e.state.Orders.Requeue(o.ID)
		}
	}
}

func (e *Engine) cancelOrder(o *order.Order, reason string) {
	carrier := o.AssignedDriver
	if err := o.Cancel(reason); err != nil {
		return
	}
	e.state.Orders.Retire(o.ID)

	if id, ok := fleetVehicleID(carrier); ok {
		if f, err := e.state.Fleet.Get(id); err == nil {
			f.Release(f.Location)
		}
		return
	}
	if d, err := e.state.Drivers.Get(carrier); err == nil {
		d.CompleteOrder(o.ID, o.VolumeL, o.WeightKg, 0)
		if d.Available(e.state.Now) {
			e.state.Drivers.MarkAvailable(d.ID)
		}
	}
}

func (e *Engine) computeKPIs() kpi.Snapshot {
	return kpi.Compute(
		e.state.Orders.All(),
		e.state.Drivers.All(),
		e.cfg.Pricing.CommissionRate,
		e.state.FleetCost,
	)
}
