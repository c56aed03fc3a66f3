package robot

import (
	"errors"
	"math"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/route"
	"fleet/internal/pkg/errs"
	"fleet/internal/pkg/guard"
)

// distanceEpsilonKm absorbs float drift when deciding whether a robot has
// reached the end of its route.
const distanceEpsilonKm = 1e-9

// Domain errors for robot operations.
var (
	// ErrNameIsRequired is returned when attempting to create a robot without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrModelIsRequired is returned when attempting to create a robot without a model.
	ErrModelIsRequired = errs.NewValueIsRequiredError("model")
	// ErrTypeIsRequired is returned when attempting to create a robot without a type.
	ErrTypeIsRequired = errs.NewValueIsRequiredError("robot type")
	// ErrRobotIsNotConstructed is returned when using an improperly initialized Robot.
	ErrRobotIsNotConstructed = errors.New("Robot must be created via NewRobot constructor")
	// ErrBatteryExhausted is returned by Advance when the battery empties
	// before the route completes. The robot must then be marked Offline and
	// its assignment cancelled; recovery is an external operator action.
	ErrBatteryExhausted = errors.New("battery exhausted before arrival")
	// ErrNoRouteCommitted is returned by Advance when the robot has no route to follow.
	ErrNoRouteCommitted = errors.New("robot has no committed route")
	// ErrHasActiveOrders is returned when deactivating a robot that still has active orders.
	ErrHasActiveOrders = errors.New("robot still has active orders")
)

// Robot is a mobile delivery agent with battery, position, and status.
// It is an aggregate root that owns its motion state: the committed route,
// the progress along it, and the interpolated geographic position.
//
// Key invariants:
//   - battery level stays within [0.0, 1.0] and never goes negative
//   - a target node is set if and only if the robot is en route for order
//     work (EnRouteToPickup, Delivering) or traveling to a charger
//     (Charging with a committed route)
//   - the active-orders count never goes negative
//   - status transitions follow the state machine in status.go; violations
//     surface as InvalidTransitionError and are never silently ignored
//
// A freshly provisioned robot is Offline with a full battery and no
// position; Activate places it at a node and makes it Idle.
type Robot struct {
	// id uniquely identifies the robot
	id kernel.UUID
	// name is the human-readable name of the robot
	name string
	// model is the hardware model designation
	model string
	// robotType is the capability category matched against order requirements
	robotType string
	// status is the current operational state
	status Status
	// battery is the charge level in [0.0, 1.0]
	battery float64
	// currentNodeID is the last node the robot departed from or arrived at;
	// nil only while Offline before first activation
	currentNodeID *kernel.UUID
	// targetNodeID is the destination of the committed route, when en route
	targetNodeID *kernel.UUID
	// position is the live, possibly interpolated, geographic position
	position kernel.GeoPoint
	// placed records whether the robot has ever been positioned on the graph
	placed bool
	// committedRoute is the remaining route, when en route
	committedRoute *route.Route
	// legIndex is the index of the leg currently being traversed
	legIndex int
	// legProgressKm is the distance covered along the current leg
	legProgressKm float64
	// activeOrders counts orders currently assigned to the robot
	activeOrders int
	// guard ensures the robot was properly constructed
	guard guard.ConstructorGuard
}

// NewRobot creates a freshly provisioned Robot.
//
// The robot starts Offline with a full battery and no position; it must be
// activated at a node before it can take work.
//
// Parameters:
//   - id: Unique identifier (must be valid UUID)
//   - name: Human-readable name (must be non-empty)
//   - model: Hardware model designation (must be non-empty)
//   - robotType: Capability category, e.g. "ground" or "drone" (must be non-empty)
func NewRobot(id kernel.UUID, name, model, robotType string) (*Robot, error) {
	r := &Robot{
		status:  StatusOffline,
		battery: 1.0,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setID(id),
		r.setName(name),
		r.setModel(model),
		r.setRobotType(robotType),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// RestoreRobot reconstructs a Robot from persistent storage.
//
// Committed routes are runtime state and are not persisted: a robot restored
// mid-route has its status and target but no route, and stays where it is
// until an operator or a fresh dispatch re-routes it.
func RestoreRobot(
	id kernel.UUID,
	name, model, robotType string,
	status Status,
	battery float64,
	currentNodeID, targetNodeID *kernel.UUID,
	position *kernel.GeoPoint,
	activeOrders int,
) (*Robot, error) {
	r := &Robot{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setID(id),
		r.setName(name),
		r.setModel(model),
		r.setRobotType(robotType),
		r.setStatus(status),
		r.setBattery(battery),
	); err != nil {
		return nil, err
	}

	if activeOrders < 0 {
		return nil, errs.NewValueIsOutOfRangeError("active orders", activeOrders, 0, math.MaxInt)
	}
	r.activeOrders = activeOrders

	if currentNodeID != nil {
		if err := currentNodeID.Validate(); err != nil {
			return nil, err
		}
		id := *currentNodeID
		r.currentNodeID = &id
	}
	if targetNodeID != nil {
		if err := targetNodeID.Validate(); err != nil {
			return nil, err
		}
		id := *targetNodeID
		r.targetNodeID = &id
	}
	if position != nil {
		if err := position.Validate(); err != nil {
			return nil, err
		}
		r.position = *position
		r.placed = true
	}

	return r, nil
}

// IsEqual compares two robots for equality based on their unique identifiers.
func (r *Robot) IsEqual(other *Robot) bool {
	if other == nil {
		return false
	}
	return r.id.IsEqual(other.id)
}

// Validate checks if the Robot was properly constructed via NewRobot.
func (r *Robot) Validate() error {
	if r == nil {
		return ErrRobotIsNotConstructed
	}
	return r.guard.Validate(ErrRobotIsNotConstructed)
}

// ID returns the unique identifier of the robot.
func (r *Robot) ID() kernel.UUID {
	return r.id
}

// Name returns the human-readable name of the robot.
func (r *Robot) Name() string {
	return r.name
}

// Model returns the hardware model designation.
func (r *Robot) Model() string {
	return r.model
}

// RobotType returns the capability category of the robot.
func (r *Robot) RobotType() string {
	return r.robotType
}

// Status returns the current operational state.
func (r *Robot) Status() Status {
	return r.status
}

// Battery returns the charge level in [0.0, 1.0].
func (r *Robot) Battery() float64 {
	return r.battery
}

// CurrentNode returns the last node the robot arrived at or departed from,
// or nil while Offline before first activation.
func (r *Robot) CurrentNode() *kernel.UUID {
	if r.currentNodeID == nil {
		return nil
	}
	id := *r.currentNodeID
	return &id
}

// TargetNode returns the destination of the committed route, or nil when the
// robot is not en route.
func (r *Robot) TargetNode() *kernel.UUID {
	if r.targetNodeID == nil {
		return nil
	}
	id := *r.targetNodeID
	return &id
}

// Position returns the live geographic position. The second return is false
// for a robot that has never been placed on the graph.
func (r *Robot) Position() (kernel.GeoPoint, bool) {
	return r.position, r.placed
}

// ActiveOrders returns the number of orders currently assigned to the robot.
func (r *Robot) ActiveOrders() int {
	return r.activeOrders
}

// Route returns the committed remaining route, if any.
func (r *Robot) Route() (route.Route, bool) {
	if r.committedRoute == nil {
		return route.Route{}, false
	}
	return *r.committedRoute, true
}

// RemainingRouteKm returns the distance left to the route destination.
func (r *Robot) RemainingRouteKm() float64 {
	if r.committedRoute == nil {
		return 0
	}

	var remaining float64
	for i := r.legIndex; i < r.committedRoute.LegCount(); i++ {
		remaining += r.committedRoute.Leg(i).DistanceKm
	}
	return remaining - r.legProgressKm
}

// HasReserveBattery reports whether the battery is above the reserve
// threshold required for taking on new non-charging work.
func (r *Robot) HasReserveBattery(threshold float64) bool {
	return r.battery > threshold
}

// TravelBudgetKm returns how far the robot can travel before its battery
// empties, at the given battery cost per kilometer.
func (r *Robot) TravelBudgetKm(costPerKm float64) float64 {
	if costPerKm <= 0 {
		return math.Inf(1)
	}
	return r.battery / costPerKm
}

// Activate places an Offline robot at a node and makes it Idle.
func (r *Robot) Activate(nodeID kernel.UUID, at kernel.GeoPoint) error {
	if err := errors.Join(r.Validate(), nodeID.Validate(), at.Validate()); err != nil {
		return err
	}

	newStatus, err := r.status.Transition(StatusIdle)
	if err != nil {
		return err
	}

	r.status = newStatus
	id := nodeID
	r.currentNodeID = &id
	r.position = at
	r.placed = true
	return nil
}

// Deactivate takes an Idle robot out of service. Robots with active orders
// cannot be deactivated; their orders must complete or be cancelled first.
func (r *Robot) Deactivate() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.activeOrders > 0 {
		return ErrHasActiveOrders
	}

	newStatus, err := r.status.Transition(StatusOffline)
	if err != nil {
		return err
	}

	r.status = newStatus
	r.clearRoute()
	return nil
}

// BeginRoute commits the robot to a route and transitions it to next, which
// must be one of the moving states (EnRouteToPickup, Delivering, or Charging
// for a charger-bound detour). The route must start at the robot's current
// node.
func (r *Robot) BeginRoute(rt route.Route, next Status) error {
	if err := errors.Join(r.Validate(), rt.Validate()); err != nil {
		return err
	}
	if next != StatusEnRouteToPickup && next != StatusDelivering && next != StatusCharging {
		return errs.NewInvalidTransitionError("robot", r.status.String(), next.String())
	}
	if r.currentNodeID == nil || !r.currentNodeID.IsEqual(rt.Origin()) {
		return errs.NewValueIsInvalidError("route does not start at the robot's current node")
	}

	if next != r.status {
		newStatus, err := r.status.Transition(next)
		if err != nil {
			return err
		}
		r.status = newStatus
	}

	committed := rt
	r.committedRoute = &committed
	r.legIndex = 0
	r.legProgressKm = 0
	dest := rt.Destination()
	r.targetNodeID = &dest
	return nil
}

// Advance moves the robot stepKm along its committed route, consuming
// battery at costPerKm per kilometer and interpolating its position.
//
// Returns arrived=true when the robot reaches the route destination; its
// position then snaps to the destination node and the route is cleared (the
// target node remains set until the follow-up transition claims it).
//
// Returns ErrBatteryExhausted when the battery empties before arrival; the
// robot stops where the charge ran out and the caller must mark it Offline
// via FailBattery.
func (r *Robot) Advance(stepKm, costPerKm float64) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	if r.committedRoute == nil {
		return false, ErrNoRouteCommitted
	}
	if stepKm <= 0 {
		return false, nil
	}

	travel := math.Min(stepKm, r.RemainingRouteKm())
	cost := travel * costPerKm

	exhausted := cost > r.battery+distanceEpsilonKm
	if exhausted {
		travel = r.battery / costPerKm
		cost = r.battery
	}

	if err := r.moveAlongRoute(travel); err != nil {
		return false, err
	}
	r.battery = math.Max(0, r.battery-cost)

	if exhausted {
		return false, ErrBatteryExhausted
	}

	if r.RemainingRouteKm() <= distanceEpsilonKm {
		r.arrive()
		return true, nil
	}
	return false, nil
}

// FailBattery marks a robot Offline after battery exhaustion mid-route.
// The committed route, target, current node, and active assignments are
// discarded; the stranded robot keeps its last interpolated position and
// requires external recovery. Cancelling the abandoned orders is the
// caller's responsibility.
func (r *Robot) FailBattery() error {
	if err := r.Validate(); err != nil {
		return err
	}

	newStatus, err := r.status.Transition(StatusOffline)
	if err != nil {
		return err
	}

	r.status = newStatus
	r.battery = 0
	r.activeOrders = 0
	r.currentNodeID = nil
	r.clearRoute()
	return nil
}

// StartCharging docks the robot at its current node to recharge. Valid for a
// Charging robot that just arrived at its charger, or an Idle robot already
// sitting at a charging node.
func (r *Robot) StartCharging() error {
	if err := r.Validate(); err != nil {
		return err
	}

	if r.status != StatusCharging {
		newStatus, err := r.status.Transition(StatusCharging)
		if err != nil {
			return err
		}
		r.status = newStatus
	}

	r.clearRoute()
	return nil
}

// ChargeTick raises the battery by rate, capped at full. Returns full=true
// once the battery reaches 1.0.
func (r *Robot) ChargeTick(rate float64) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	if r.status != StatusCharging {
		return false, errs.NewInvalidTransitionError("robot", r.status.String(), StatusCharging.String())
	}

	r.battery = math.Min(1.0, r.battery+rate)
	return r.battery >= 1.0, nil
}

// BecomeIdle returns a fully charged robot to the available pool.
func (r *Robot) BecomeIdle() error {
	if err := r.Validate(); err != nil {
		return err
	}

	newStatus, err := r.status.Transition(StatusIdle)
	if err != nil {
		return err
	}

	r.status = newStatus
	r.clearRoute()
	return nil
}

// IncrementActiveOrders records a new assignment on the robot.
func (r *Robot) IncrementActiveOrders() {
	r.activeOrders++
}

// CompleteDelivery finishes the robot's current delivery: the active-order
// count drops by one and, with no further assignment, the robot goes Idle.
func (r *Robot) CompleteDelivery() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := r.decrementActiveOrders(); err != nil {
		return err
	}

	newStatus, err := r.status.Transition(StatusIdle)
	if err != nil {
		return err
	}

	r.status = newStatus
	r.clearRoute()
	return nil
}

// ReleaseAssignment unwinds an in-progress assignment after its order was
// cancelled. The robot abandons its route where it stands and goes Idle, or
// straight to Charging when toCharging is set (battery below reserve).
func (r *Robot) ReleaseAssignment(toCharging bool) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := r.decrementActiveOrders(); err != nil {
		return err
	}

	next := StatusIdle
	if toCharging {
		next = StatusCharging
	}

	newStatus, err := r.status.Transition(next)
	if err != nil {
		return err
	}

	r.status = newStatus
	r.clearRoute()
	return nil
}

// moveAlongRoute advances the robot's position travel kilometers along the
// committed route, crossing leg boundaries as needed.
func (r *Robot) moveAlongRoute(travel float64) error {
	for travel > distanceEpsilonKm && r.legIndex < r.committedRoute.LegCount() {
		leg := r.committedRoute.Leg(r.legIndex)
		legRemaining := leg.DistanceKm - r.legProgressKm

		if travel >= legRemaining-distanceEpsilonKm {
			travel -= legRemaining
			r.legIndex++
			r.legProgressKm = 0
			id := leg.ToID
			r.currentNodeID = &id
			r.position = leg.To
			continue
		}

		r.legProgressKm += travel
		travel = 0

		if leg.DistanceKm > 0 {
			pos, err := leg.From.Interpolate(leg.To, r.legProgressKm/leg.DistanceKm)
			if err != nil {
				return err
			}
			r.position = pos
		}
	}
	return nil
}

// arrive snaps the robot onto the route destination and discards the route.
func (r *Robot) arrive() {
	dest := r.committedRoute.Destination()
	r.currentNodeID = &dest
	r.position = r.committedRoute.DestinationPoint()
	r.committedRoute = nil
	r.legIndex = 0
	r.legProgressKm = 0
}

// clearRoute discards any committed route and target.
func (r *Robot) clearRoute() {
	r.committedRoute = nil
	r.targetNodeID = nil
	r.legIndex = 0
	r.legProgressKm = 0
}

func (r *Robot) decrementActiveOrders() error {
	if r.activeOrders <= 0 {
		return errs.NewValueIsInvalidError("active orders count cannot go negative")
	}
	r.activeOrders--
	return nil
}

// setID sets the robot's unique identifier with validation.
func (r *Robot) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	r.id = id
	return nil
}

// setName sets the robot's name with validation.
func (r *Robot) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	r.name = name
	return nil
}

// setModel sets the robot's model with validation.
func (r *Robot) setModel(model string) error {
	if model == "" {
		return ErrModelIsRequired
	}

	r.model = model
	return nil
}

// setRobotType sets the robot's capability category with validation.
func (r *Robot) setRobotType(robotType string) error {
	if robotType == "" {
		return ErrTypeIsRequired
	}

	r.robotType = robotType
	return nil
}

// setStatus sets the robot's status with validation. Used during restoration.
func (r *Robot) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}

	r.status = status
	return nil
}

// setBattery sets the battery level with validation. Used during restoration.
func (r *Robot) setBattery(battery float64) error {
	if battery < 0 || battery > 1 {
		return errs.NewValueIsOutOfRangeError("battery", battery, 0.0, 1.0)
	}

	r.battery = battery
	return nil
}
