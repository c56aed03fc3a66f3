package services

import (
	"errors"
	"sort"

	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/domain/model/route"
	"fleet/internal/pkg/errs"
)

// ErrNoEligibleRobot is returned when no robot can serve an order right now.
// Absence of capacity is a normal, recoverable condition: the order stays
// unassigned and is retried on the next dispatch cycle.
var ErrNoEligibleRobot = errors.New("no eligible robot for order")

// Assignment is the outcome of matching one order to a robot: the chosen
// robot snapshot and the committed pickup route.
//
// The snapshot is a candidate only. The caller must commit the assignment
// through the fleet store's compare-and-set, which revalidates that the
// robot is still Idle.
type Assignment struct {
	Robot       robot.Robot
	PickupRoute route.Route
	ViaCharger  bool
	ProjectedKm float64
}

// Dispatcher is a domain service that pairs unassigned orders with eligible
// idle robots.
//
// Eligibility filter:
//   - robot status is Idle
//   - battery is above the reserve threshold
//   - robot type matches the order's required type, when one is set
//
// Matching policy: among eligible robots, pick the one minimizing the
// projected trip distance (current position to pickup to dropoff); ties
// break by lowest robot identity. Routing may insert a charging stop on the
// pickup leg when the direct leg exceeds the robot's travel budget; a robot
// that cannot be routed at all is passed over for the next-best candidate.
type Dispatcher struct {
	router         Router
	reserveBattery float64
	costPerKm      float64
}

// NewDispatcher creates a Dispatcher.
//
// reserveBattery is the battery fraction below which a robot cannot be
// assigned non-charging work, in [0.0, 1.0). costPerKm is the battery
// fraction one kilometer of travel consumes, positive.
func NewDispatcher(router Router, reserveBattery, costPerKm float64) (Dispatcher, error) {
	if reserveBattery < 0 || reserveBattery >= 1 {
		return Dispatcher{}, errs.NewValueIsOutOfRangeError("reserveBattery", reserveBattery, 0, 1)
	}
	if costPerKm <= 0 {
		return Dispatcher{}, errs.NewValueIsInvalidError("costPerKm")
	}

	return Dispatcher{
		router:         router,
		reserveBattery: reserveBattery,
		costPerKm:      costPerKm,
	}, nil
}

// Match selects the best robot for an order and builds its pickup route.
//
// nodes is the full node list; the order's pickup and dropoff nodes and all
// charging nodes are resolved from it. Returns ErrNoEligibleRobot when no
// robot passes the eligibility filter or none of the eligible robots can be
// routed to the pickup node.
func (d Dispatcher) Match(
	ord *order.Order,
	robots []robot.Robot,
	nodes []*node.Node,
) (Assignment, error) {
	if err := ord.Validate(); err != nil {
		return Assignment{}, err
	}
	if ord.Status() != order.StatusCreated {
		return Assignment{}, errs.NewValueIsInvalidError("order status")
	}

	byID := make(map[string]*node.Node, len(nodes))
	var chargers []*node.Node
	for _, n := range nodes {
		byID[n.ID().String()] = n
		if n.IsCharging() {
			chargers = append(chargers, n)
		}
	}

	pickup, ok := byID[ord.PickupNode().String()]
	if !ok {
		return Assignment{}, errs.NewObjectNotFoundError("node", ord.PickupNode().String())
	}
	dropoff, ok := byID[ord.DropoffNode().String()]
	if !ok {
		return Assignment{}, errs.NewObjectNotFoundError("node", ord.DropoffNode().String())
	}

	candidates, err := d.rankCandidates(ord, robots, pickup, dropoff)
	if err != nil {
		return Assignment{}, err
	}

	rechargedBudget := 1.0 / d.costPerKm
	for _, c := range candidates {
		from, ok := byID[c.robot.CurrentNode().String()]
		if !ok {
			continue
		}

		var rt route.Route
		if from.ID().IsEqual(pickup.ID()) {
			// Already at the pickup node; the pickup leg collapses into an
			// immediate hop to the dropoff.
			rt, err = d.router.ShortestPath(pickup, dropoff,
				c.robot.TravelBudgetKm(d.costPerKm), rechargedBudget, chargers)
		} else {
			rt, err = d.router.ShortestPath(from, pickup,
				c.robot.TravelBudgetKm(d.costPerKm), rechargedBudget, chargers)
		}
		if err != nil {
			if errors.Is(err, ErrInsufficientRange) {
				continue
			}
			return Assignment{}, err
		}

		return Assignment{
			Robot:       c.robot,
			PickupRoute: rt,
			ViaCharger:  rt.PassesThroughCharger(),
			ProjectedKm: c.projectedKm,
		}, nil
	}

	return Assignment{}, ErrNoEligibleRobot
}

type rankedCandidate struct {
	robot       robot.Robot
	projectedKm float64
}

// rankCandidates filters robots by eligibility and orders them by projected
// trip distance, ties by robot identity.
func (d Dispatcher) rankCandidates(
	ord *order.Order,
	robots []robot.Robot,
	pickup, dropoff *node.Node,
) ([]rankedCandidate, error) {
	deliveryKm, err := pickup.DistanceTo(dropoff)
	if err != nil {
		return nil, err
	}

	var candidates []rankedCandidate
	for i := range robots {
		r := robots[i]
		if r.Status() != robot.StatusIdle {
			continue
		}
		if !r.HasReserveBattery(d.reserveBattery) {
			continue
		}
		if !ord.AcceptsRobotType(r.RobotType()) {
			continue
		}

		pos, placed := r.Position()
		if !placed || r.CurrentNode() == nil {
			continue
		}

		approachKm, err := pos.DistanceTo(pickup.Location())
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, rankedCandidate{
			robot:       r,
			projectedKm: approachKm + deliveryKm,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].projectedKm != candidates[j].projectedKm {
			return candidates[i].projectedKm < candidates[j].projectedKm
		}
		return candidates[i].robot.ID().Less(candidates[j].robot.ID())
	})

	return candidates, nil
}

// ChargerRoute builds a route sending an idle robot to the nearest charging
// node it can reach, used to defer an order match when the robot lacks
// range for direct work.
func (d Dispatcher) ChargerRoute(r robot.Robot, nodes []*node.Node) (route.Route, error) {
	if r.CurrentNode() == nil {
		return route.Route{}, ErrNoPath
	}

	var from *node.Node
	var chargers []*node.Node
	for _, n := range nodes {
		if n.ID().IsEqual(*r.CurrentNode()) {
			from = n
		}
		if n.IsCharging() {
			chargers = append(chargers, n)
		}
	}
	if from == nil {
		return route.Route{}, errs.NewObjectNotFoundError("node", r.CurrentNode().String())
	}

	return d.router.NearestCharger(from, r.TravelBudgetKm(d.costPerKm), chargers)
}
