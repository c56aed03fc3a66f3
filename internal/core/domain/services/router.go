package services

import (
	"errors"
	"math"

	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/route"
)

// Routing errors.
var (
	// ErrNoPath is returned when a route cannot be built because an endpoint
	// is missing or the endpoints coincide.
	ErrNoPath = errors.New("no path between nodes")

	// ErrInsufficientRange is returned when the travel budget cannot cover
	// the route even with a recharge stop.
	ErrInsufficientRange = errors.New("insufficient range for route")
)

const routeEpsilonKm = 1e-9

// Router answers shortest-path queries over the node graph.
//
// Every node pair is directly reachable, so the shortest path between two
// nodes is the great-circle leg between them. The real work is the budget
// constraint: when the direct leg exceeds the robot's travel budget, the
// router searches for a charging stop that splits the trip into two
// affordable legs, minimizing total distance. Node occupancy never
// constrains pathing; nodes are not capacity limited.
//
// Selection among feasible charging stops is deterministic: lowest total
// distance first, then lowest node identity.
type Router struct{}

// NewRouter creates a new Router instance.
func NewRouter() Router {
	return Router{}
}

// ShortestPath builds a route from one node to another within a travel
// budget.
//
// budgetKm is how far the robot can travel on its current charge.
// rechargedBudgetKm is how far it can travel on a full charge, which bounds
// the second leg of a route that detours through a charging stop.
//
// Returns a single-leg route when the direct distance fits the budget. When
// it does not, returns a two-leg route through the best feasible charging
// stop, or ErrInsufficientRange when no stop both lies within budgetKm and
// leaves the destination within rechargedBudgetKm.
func (Router) ShortestPath(
	from, to *node.Node,
	budgetKm, rechargedBudgetKm float64,
	chargers []*node.Node,
) (route.Route, error) {
	if from == nil || to == nil {
		return route.Route{}, ErrNoPath
	}
	if from.ID().IsEqual(to.ID()) {
		return route.Route{}, ErrNoPath
	}

	direct, err := legBetween(from, to)
	if err != nil {
		return route.Route{}, err
	}

	if direct.DistanceKm <= budgetKm+routeEpsilonKm {
		return route.NewRoute([]route.Leg{direct})
	}

	stop, err := bestChargingStop(from, to, budgetKm, rechargedBudgetKm, chargers)
	if err != nil {
		return route.Route{}, err
	}

	first, err := legBetween(from, stop)
	if err != nil {
		return route.Route{}, err
	}
	second, err := legBetween(stop, to)
	if err != nil {
		return route.Route{}, err
	}

	return route.NewRoute([]route.Leg{first, second})
}

// NearestCharger builds a single-leg route from a node to the closest
// charging node reachable within the travel budget. Returns
// ErrInsufficientRange when no charger is in range.
func (r Router) NearestCharger(from *node.Node, budgetKm float64, chargers []*node.Node) (route.Route, error) {
	if from == nil {
		return route.Route{}, ErrNoPath
	}

	var (
		best     *node.Node
		bestDist = math.MaxFloat64
	)
	for _, c := range chargers {
		if c == nil || !c.IsCharging() || c.ID().IsEqual(from.ID()) {
			continue
		}

		d, err := from.DistanceTo(c)
		if err != nil {
			return route.Route{}, err
		}
		if d > budgetKm+routeEpsilonKm {
			continue
		}

		if d < bestDist-routeEpsilonKm ||
			(math.Abs(d-bestDist) <= routeEpsilonKm && best != nil && c.ID().Less(best.ID())) {
			best = c
			bestDist = d
		}
	}

	if best == nil {
		return route.Route{}, ErrInsufficientRange
	}

	leg, err := legBetween(from, best)
	if err != nil {
		return route.Route{}, err
	}
	return route.NewRoute([]route.Leg{leg})
}

// bestChargingStop finds the charging node minimizing total trip distance
// such that the first leg fits the current budget and the second leg fits a
// full charge.
func bestChargingStop(
	from, to *node.Node,
	budgetKm, rechargedBudgetKm float64,
	chargers []*node.Node,
) (*node.Node, error) {
	var (
		best      *node.Node
		bestTotal = math.MaxFloat64
	)

	for _, c := range chargers {
		if c == nil || !c.IsCharging() {
			continue
		}
		if c.ID().IsEqual(from.ID()) || c.ID().IsEqual(to.ID()) {
			continue
		}

		toStop, err := from.DistanceTo(c)
		if err != nil {
			return nil, err
		}
		fromStop, err := c.DistanceTo(to)
		if err != nil {
			return nil, err
		}

		if toStop > budgetKm+routeEpsilonKm || fromStop > rechargedBudgetKm+routeEpsilonKm {
			continue
		}

		total := toStop + fromStop
		if total < bestTotal-routeEpsilonKm ||
			(math.Abs(total-bestTotal) <= routeEpsilonKm && best != nil && c.ID().Less(best.ID())) {
			best = c
			bestTotal = total
		}
	}

	if best == nil {
		return nil, ErrInsufficientRange
	}
	return best, nil
}

func legBetween(from, to *node.Node) (route.Leg, error) {
	d, err := from.DistanceTo(to)
	if err != nil {
		return route.Leg{}, err
	}

	return route.Leg{
		FromID:     from.ID(),
		ToID:       to.ID(),
		From:       from.Location(),
		To:         to.Location(),
		DistanceKm: d,
	}, nil
}
