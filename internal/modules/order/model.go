// README: Order aggregate, parcel attributes and lifecycle definitions.
package order

import (
	"fmt"
	"time"

	"crowdship/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPublished Status = "published"
	StatusAccepted  Status = "accepted"
	StatusDelivered Status = "delivered"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// ParcelSize is the discrete size class of a parcel.
type ParcelSize string

const (
	SizeXS ParcelSize = "XS"
	SizeS  ParcelSize = "S"
	SizeM  ParcelSize = "M"
	SizeL  ParcelSize = "L"
	SizeXL ParcelSize = "XL"
)

// ServiceLevel is the delivery speed the customer paid for.
type ServiceLevel string

const (
	ServiceSameDay ServiceLevel = "same_day"
	ServiceNextDay ServiceLevel = "next_day"
	ServiceFlex    ServiceLevel = "flex"
)

type Order struct {
	ID              types.ID
	CreatedAt       time.Time
	Pickup          types.Point
	Drop            types.Point
	WindowStart     time.Time
	WindowEnd       time.Time
	LatestDeparture time.Time
	VolumeL         float64
	WeightKg        float64
	SizeClass       ParcelSize
	ServiceLevel    ServiceLevel
	BasePrice       float64
	// FinalPrice is stamped at acceptance once surge and service factors
	// are known; zero until then.
	FinalPrice float64
	// ActualDistanceKm is the route actually driven, stamped on delivery.
	ActualDistanceKm float64
	Status           Status
	// AssignedDriver is a weak reference; the order never owns the driver.
	AssignedDriver types.ID
	AcceptedAt     *time.Time
	PickedUpAt     *time.Time
	DeliveredAt    *time.Time
	CancelReason   string
}

// AllowedTransitions represents the order state flow (diagram) as code.
// Terminal states have no outgoing edges; cancellation is only reachable
// before delivery. The edge back to PUBLISHED covers carrier withdrawal.
var AllowedTransitions = map[Status][]Status{
	StatusPublished: {StatusAccepted, StatusExpired, StatusCancelled},
	StatusAccepted:  {StatusDelivered, StatusCancelled, StatusPublished},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var ErrInvalidTransition = fmt.Errorf("invalid order state transition")

func (o *Order) transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrInvalidTransition, o.Status, to, o.ID)
	}
	o.Status = to
	return nil
}

// Accept assigns the order to a driver and stamps the acceptance time.
func (o *Order) Accept(driverID types.ID, now time.Time) error {
	if err := o.transition(StatusAccepted); err != nil {
		return err
	}
	o.AssignedDriver = driverID
	t := now
	o.AcceptedAt = &t
	return nil
}

// Deliver marks the order delivered at the given time.
func (o *Order) Deliver(now time.Time) error {
	if err := o.transition(StatusDelivered); err != nil {
		return err
	}
	t := now
	o.DeliveredAt = &t
	return nil
}

// Expire marks an unassigned order as expired.
func (o *Order) Expire() error {
	return o.transition(StatusExpired)
}

// Cancel aborts the order. Allowed from PUBLISHED and ACCEPTED only.
func (o *Order) Cancel(reason string) error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// Release returns an accepted order to the marketplace after its carrier
// withdraws. The acceptance stamps are cleared so the order re-matches as if
// freshly published.
func (o *Order) Release() error {
	if err := o.transition(StatusPublished); err != nil {
		return err
	}
	o.AssignedDriver = ""
	o.AcceptedAt = nil
	o.PickedUpAt = nil
	o.FinalPrice = 0
	return nil
}

// Expired reports whether the hard departure deadline has passed.
func (o *Order) Expired(now time.Time) bool {
	return now.After(o.LatestDeparture)
}

// Assignable reports whether the order can still be offered to drivers.
func (o *Order) Assignable(now time.Time) bool {
	return o.Status == StatusPublished && !o.Expired(now)
}

// Terminal reports whether the order has reached a final state.
func (o *Order) Terminal() bool {
	switch o.Status {
	case StatusDelivered, StatusExpired, StatusCancelled:
		return true
	}
	return false
}
