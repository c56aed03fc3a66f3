// Package route contains the Route value object: an ordered sequence of
// graph legs a robot commits to traverse, with cumulative traversal cost.
package route

import (
	"errors"
	"fmt"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/errs"
	"fleet/internal/pkg/guard"
)

// ErrRouteIsNotConstructed is returned when using an improperly initialized Route.
var ErrRouteIsNotConstructed = errors.New("Route must be created via NewRoute constructor")

// Leg is a single direct traversal between two nodes of the graph.
type Leg struct {
	FromID     kernel.UUID
	ToID       kernel.UUID
	From       kernel.GeoPoint
	To         kernel.GeoPoint
	DistanceKm float64
}

// Route is an immutable ordered sequence of legs. A valid route has at least
// one leg and is contiguous: each leg starts where the previous one ended.
type Route struct {
	legs  []Leg
	guard guard.ConstructorGuard
}

// NewRoute creates a route from the given legs, validating contiguity and
// non-negative leg distances.
func NewRoute(legs []Leg) (Route, error) {
	if len(legs) == 0 {
		return Route{}, errs.NewValueIsRequiredError("legs")
	}

	for i, leg := range legs {
		if err := errors.Join(
			leg.FromID.Validate(),
			leg.ToID.Validate(),
			leg.From.Validate(),
			leg.To.Validate(),
		); err != nil {
			return Route{}, err
		}
		if leg.DistanceKm < 0 {
			return Route{}, errs.NewValueIsInvalidErrorWithCause("leg distance",
				fmt.Errorf("leg %d has negative distance %f", i, leg.DistanceKm))
		}
		if i > 0 && !legs[i-1].ToID.IsEqual(leg.FromID) {
			return Route{}, errs.NewValueIsInvalidErrorWithCause("legs",
				fmt.Errorf("leg %d does not start where leg %d ended", i, i-1))
		}
	}

	owned := make([]Leg, len(legs))
	copy(owned, legs)

	return Route{
		legs:  owned,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (r Route) Validate() error {
	return r.guard.Validate(ErrRouteIsNotConstructed)
}

// Legs returns a copy of the route's legs.
func (r Route) Legs() []Leg {
	out := make([]Leg, len(r.legs))
	copy(out, r.legs)
	return out
}

// Leg returns the leg at index i.
func (r Route) Leg(i int) Leg {
	return r.legs[i]
}

// LegCount returns the number of legs.
func (r Route) LegCount() int {
	return len(r.legs)
}

// TotalDistanceKm returns the cumulative traversal cost of the route.
func (r Route) TotalDistanceKm() float64 {
	var total float64
	for _, leg := range r.legs {
		total += leg.DistanceKm
	}
	return total
}

// Origin returns the node the route departs from.
func (r Route) Origin() kernel.UUID {
	return r.legs[0].FromID
}

// Destination returns the final node of the route.
func (r Route) Destination() kernel.UUID {
	return r.legs[len(r.legs)-1].ToID
}

// DestinationPoint returns the geographic position of the final node.
func (r Route) DestinationPoint() kernel.GeoPoint {
	return r.legs[len(r.legs)-1].To
}

// PassesThroughCharger reports whether the route has an intermediate stop,
// which in this graph can only be a charging waypoint.
func (r Route) PassesThroughCharger() bool {
	return len(r.legs) > 1
}
