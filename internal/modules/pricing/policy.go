// README: Pricing and wage policy; converts distance, size and time-of-day into money.
package pricing

import (
	"time"

	"crowdship/internal/modules/geo"
	"crowdship/internal/modules/order"
)

// Mode selects between flat and demand-sensitive pricing.
type Mode string

const (
	ModeFixed   Mode = "fixed"
	ModeDynamic Mode = "dynamic"
)

// Policy is an immutable rate card built once per run. Multiple runs with
// different parameters can coexist in one process.
type Policy struct {
	sizeRatePerKm  map[order.ParcelSize]float64
	surge          map[geo.TimeSlot]float64
	serviceFactor  map[order.ServiceLevel]float64
	windowDiscount map[order.ServiceLevel]float64
	commissionRate float64

	fixedWagePerKm    float64
	fixedWagePerMin   float64
	dynamicWagePerKm  float64
	dynamicWagePerMin float64
	wageSurgeShare    float64
	wageRatingShare   float64
}

// NewPolicy builds the default rate card with the given commission rate.
func NewPolicy(commissionRate float64) *Policy {
	return &Policy{
		sizeRatePerKm: map[order.ParcelSize]float64{
			order.SizeXS: 0.5,
			order.SizeS:  0.8,
			order.SizeM:  1.2,
			order.SizeL:  1.8,
			order.SizeXL: 2.5,
		},
		surge: map[geo.TimeSlot]float64{
			geo.SlotMorning: 1.3,
			geo.SlotMidday:  1.0,
			geo.SlotEvening: 1.4,
			geo.SlotNight:   0.8,
		},
		serviceFactor: map[order.ServiceLevel]float64{
			order.ServiceSameDay: 1.2,
			order.ServiceNextDay: 1.0,
			order.ServiceFlex:    0.8,
		},
		windowDiscount: map[order.ServiceLevel]float64{
			order.ServiceNextDay: 0.1,
			order.ServiceFlex:    0.2,
		},
		commissionRate: commissionRate,

		fixedWagePerKm:    0.4,
		fixedWagePerMin:   0.02,
		dynamicWagePerKm:  0.3,
		dynamicWagePerMin: 0.015,
		wageSurgeShare:    1.2,
		wageRatingShare:   0.1,
	}
}

// Price computes the customer price for an order at a given time.
//
// Fixed mode: size rate x direct distance. Dynamic mode additionally applies
// the time-of-day surge, the service-level factor and the slow-service window
// discount, floored at 50% of the fixed price.
func (p *Policy) Price(o *order.Order, at time.Time, mode Mode) float64 {
	distanceKm := geo.HaversineKm(o.Pickup, o.Drop)
	base := p.sizeRatePerKm[o.SizeClass] * distanceKm
	if mode == ModeFixed {
		return base
	}

	surge := p.surge[geo.SlotOf(at)]
	service := p.serviceFactor[o.ServiceLevel]
	if service == 0 {
		service = 1.0
	}
	discount := p.windowDiscount[o.ServiceLevel]

	final := base * surge * service * (1 - discount)
	if floor := base * 0.5; final < floor {
		return floor
	}
	return final
}

// Wage computes what the driver earns for a delivery leg.
//
// Dynamic mode adds a surge bonus proportional to the slot surge and a rating
// bonus proportional to how far the rating exceeds the 4.0 baseline. Never
// below the 1.0 minimum.
func (p *Policy) Wage(distanceKm, minutes float64, at time.Time, mode Mode, rating float64) float64 {
	var wage float64
	if mode == ModeFixed {
		wage = distanceKm*p.fixedWagePerKm + minutes*p.fixedWagePerMin
	} else {
		base := distanceKm*p.dynamicWagePerKm + minutes*p.dynamicWagePerMin
		surgeBonus := base * (p.surge[geo.SlotOf(at)] - 1.0) * p.wageSurgeShare
		ratingBonus := base * (rating - 4.0) * p.wageRatingShare
		wage = base + surgeBonus + ratingBonus
	}
	if wage < 1.0 {
		return 1.0
	}
	return wage
}

// PlatformProfit is the commission taken off the customer price. The
// commission is charged on price, not on margin; the driver wage does not
// enter this figure.
func (p *Policy) PlatformProfit(price float64) float64 {
	return price * p.commissionRate
}

// CommissionRate exposes the configured rate for reporting.
func (p *Policy) CommissionRate() float64 { return p.commissionRate }

// Surge returns the multiplier for a time slot; reporting uses it to explain
// price deltas.
func (p *Policy) Surge(slot geo.TimeSlot) float64 { return p.surge[slot] }
