// README: Greedy matching engine: single-pair mode and the default bundling mode.
package matching

import (
	"sort"
	"time"

	"crowdship/internal/config"
	"crowdship/internal/modules/driver"
	"crowdship/internal/modules/geo"
	"crowdship/internal/modules/order"
	"crowdship/internal/types"
)

// Assignment pairs one order with one driver. The engine only proposes;
// applying transitions and scheduling follow-up events is the caller's job.
type Assignment struct {
	Order  *order.Order
	Driver *driver.Driver
	Score  float64
}

// Engine proposes assignments between unassigned orders and available
// drivers. It holds configuration only; all entity state stays with the
// caller, so two engines with different knobs can serve runs side by side.
type Engine struct {
	cfg    config.MatchingConfig
	center types.Point
}

func NewEngine(cfg config.MatchingConfig, center types.Point) *Engine {
	return &Engine{cfg: cfg, center: center}
}

// Match produces a set of assignments in which no order appears twice and no
// driver is pushed past its headroom. The engine does not mutate orders or
// drivers.
func (e *Engine) Match(orders []*order.Order, drivers []*driver.Driver, now time.Time) []Assignment {
	orders = sortedOrders(orders, now)
	drivers = sortedDrivers(drivers)
	if len(orders) == 0 || len(drivers) == 0 {
		return nil
	}
	if e.cfg.AllowBundling {
		return e.matchBundled(orders, drivers, now)
	}
	return e.matchSingle(orders, drivers, now)
}

// matchSingle scores every feasible pair, sorts globally by score and accepts
// greedily, skipping any order or driver already consumed in this pass. One
// order per driver per pass.
func (e *Engine) matchSingle(orders []*order.Order, drivers []*driver.Driver, now time.Time) []Assignment {
	type candidate struct {
		o     *order.Order
		d     *driver.Driver
		score float64
	}

	var candidates []candidate
	for _, o := range orders {
		for _, d := range drivers {
			if s, ok := Evaluate(o, d, now, e.cfg.MaxDetourKm); ok {
				candidates = append(candidates, candidate{o, d, s})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].o.ID < candidates[j].o.ID
	})

	var out []Assignment
	takenOrders := make(map[types.ID]struct{})
	takenDrivers := make(map[types.ID]struct{})
	for _, c := range candidates {
		if _, ok := takenOrders[c.o.ID]; ok {
			continue
		}
		if _, ok := takenDrivers[c.d.ID]; ok {
			continue
		}
		out = append(out, Assignment{Order: c.o, Driver: c.d, Score: c.score})
		takenOrders[c.o.ID] = struct{}{}
		takenDrivers[c.d.ID] = struct{}{}
	}
	return out
}

// matchBundled runs the courier cluster pass first, then sweeps leftovers
// onto the nearest remaining driver.
func (e *Engine) matchBundled(orders []*order.Order, drivers []*driver.Driver, now time.Time) []Assignment {
	takenOrders := make(map[types.ID]struct{})
	takenDrivers := make(map[types.ID]struct{})
	loads := make(map[types.ID]load)

	out := e.clusterPass(orders, drivers, now, takenOrders, takenDrivers, loads)
	out = append(out, e.leftoverPass(orders, drivers, now, takenOrders, takenDrivers, loads)...)
	return out
}

// clusterPass groups orders by drop cell and hands each courier up to a full
// bundle from the cell it serves best. Couriers with more capacity and a
// better acceptance record go first.
func (e *Engine) clusterPass(orders []*order.Order, drivers []*driver.Driver, now time.Time,
	takenOrders, takenDrivers map[types.ID]struct{}, loads map[types.ID]load) []Assignment {

	cells := make(map[geo.Cell][]*order.Order)
	var keys []geo.Cell
	for _, o := range orders {
		c := geo.CellOf(o.Drop, e.center, e.cfg.ClusterCellKm)
		if _, seen := cells[c]; !seen {
			keys = append(keys, c)
		}
		cells[c] = append(cells[c], o)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})

	couriers := make([]*driver.Driver, 0, len(drivers))
	for _, d := range drivers {
		if d.Class == driver.ClassCourier {
			couriers = append(couriers, d)
		}
	}
	sort.SliceStable(couriers, func(i, j int) bool {
		if couriers[i].CapacityL != couriers[j].CapacityL {
			return couriers[i].CapacityL > couriers[j].CapacityL
		}
		if couriers[i].AcceptanceRate7d != couriers[j].AcceptanceRate7d {
			return couriers[i].AcceptanceRate7d > couriers[j].AcceptanceRate7d
		}
		return couriers[i].ID < couriers[j].ID
	})

	var out []Assignment
	for _, d := range couriers {
		best := e.bestCell(d, keys, cells, now, takenOrders)
		if len(best) == 0 {
			continue
		}

		limit := e.cfg.BundleLimit
		var bundled int
		for _, o := range best {
			if bundled >= limit {
				break
			}
			s, ok := evaluateWithLoad(o, d, now, e.cfg.MaxDetourKm, loads[d.ID])
			if !ok {
				continue
			}
			out = append(out, Assignment{Order: o, Driver: d, Score: s})
			takenOrders[o.ID] = struct{}{}
			l := loads[d.ID]
			l.count++
			l.volumeL += o.VolumeL
			l.weightKg += o.WeightKg
			loads[d.ID] = l
			bundled++
		}
		if bundled > 0 {
			takenDrivers[d.ID] = struct{}{}
		}
	}
	return out
}

// bestCell scores each cell as count/(1+avgDropDistance) and returns the
// feasible orders of the winner: more reachable orders in a tighter area wins.
func (e *Engine) bestCell(d *driver.Driver, keys []geo.Cell, cells map[geo.Cell][]*order.Order,
	now time.Time, takenOrders map[types.ID]struct{}) []*order.Order {

	var (
		bestScore  float64
		bestOrders []*order.Order
	)
	for _, key := range keys {
		var (
			feasible []*order.Order
			totalKm  float64
		)
		for _, o := range cells[key] {
			if _, taken := takenOrders[o.ID]; taken {
				continue
			}
			if _, ok := Evaluate(o, d, now, e.cfg.MaxDetourKm); !ok {
				continue
			}
			feasible = append(feasible, o)
			totalKm += geo.HaversineKm(d.Location, o.Drop)
		}
		if len(feasible) == 0 {
			continue
		}
		avgKm := totalKm / float64(len(feasible))
		if s := float64(len(feasible)) / (1 + avgKm); s > bestScore {
			bestScore = s
			bestOrders = feasible
		}
	}
	return bestOrders
}

// Class priority multipliers for the leftover sweep. A lower multiplier makes
// a class win ties over longer distances, which steers stray orders toward
// couriers and keeps trucks for the bulky tail.
var classPriority = map[driver.Class]float64{
	driver.ClassCourier: 0.5,
	driver.ClassMetro:   0.8,
}

// leftoverPass assigns each remaining order to the nearest feasible driver,
// distance adjusted by class priority. One leftover per driver.
func (e *Engine) leftoverPass(orders []*order.Order, drivers []*driver.Driver, now time.Time,
	takenOrders, takenDrivers map[types.ID]struct{}, loads map[types.ID]load) []Assignment {

	var out []Assignment
	for _, o := range orders {
		if _, taken := takenOrders[o.ID]; taken {
			continue
		}

		var (
			bestDriver *driver.Driver
			bestAdj    = -1.0
			bestScore  float64
		)
		for _, d := range drivers {
			if _, taken := takenDrivers[d.ID]; taken {
				continue
			}
			s, ok := evaluateWithLoad(o, d, now, e.cfg.MaxDetourKm, loads[d.ID])
			if !ok {
				continue
			}
			priority := classPriority[d.Class]
			if priority == 0 {
				priority = 1.0
			}
			adj := geo.HaversineKm(d.Location, o.Pickup) * priority
			if bestAdj < 0 || adj < bestAdj {
				bestAdj = adj
				bestDriver = d
				bestScore = s
			}
		}
		if bestDriver == nil {
			continue
		}

		out = append(out, Assignment{Order: o, Driver: bestDriver, Score: bestScore})
		takenOrders[o.ID] = struct{}{}
		takenDrivers[bestDriver.ID] = struct{}{}
	}
	return out
}

// sortedOrders copies and sorts assignable orders by id for reproducible runs.
func sortedOrders(in []*order.Order, now time.Time) []*order.Order {
	out := make([]*order.Order, 0, len(in))
	for _, o := range in {
		if o.Assignable(now) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedDrivers(in []*driver.Driver) []*driver.Driver {
	out := make([]*driver.Driver, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
