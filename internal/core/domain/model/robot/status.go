package robot

import (
	"fleet/internal/pkg/errs"
)

// Status represents the operational state of a robot.
type Status int

const (
	// StatusUnknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	StatusUnknown Status = iota

	// StatusIdle means the robot is parked at a node with no committed route.
	StatusIdle

	// StatusEnRouteToPickup means the robot is traveling to an order's pickup node.
	StatusEnRouteToPickup

	// StatusDelivering means the robot has picked up and is traveling to the
	// order's drop-off node.
	StatusDelivering

	// StatusCharging means the robot is bound to a charging node: either
	// traveling toward it (target set) or docked and recharging (target
	// cleared).
	StatusCharging

	// StatusOffline means the robot is out of service: just provisioned, got
	// decommissioned, or stranded after battery exhaustion. Offline robots
	// require external recovery before they can work again.
	StatusOffline
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown:         "Unknown",
		StatusIdle:            "Idle",
		StatusEnRouteToPickup: "EnRouteToPickup",
		StatusDelivering:      "Delivering",
		StatusCharging:        "Charging",
		StatusOffline:         "Offline",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // StatusUnknown is intentionally excluded as it's invalid
	return map[Status]string{
		StatusIdle:            "Idle",
		StatusEnRouteToPickup: "EnRouteToPickup",
		StatusDelivering:      "Delivering",
		StatusCharging:        "Charging",
		StatusOffline:         "Offline",
	}
}

// allowedTransitions defines the robot status state machine.
func allowedTransitions() map[Status][]Status {
	return map[Status][]Status{
		StatusOffline:         {StatusIdle},
		StatusIdle:            {StatusEnRouteToPickup, StatusDelivering, StatusCharging, StatusOffline},
		StatusEnRouteToPickup: {StatusDelivering, StatusIdle, StatusCharging, StatusOffline},
		StatusDelivering:      {StatusIdle, StatusCharging, StatusOffline},
		StatusCharging:        {StatusDelivering, StatusIdle, StatusOffline},
	}
}

func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidError("status is invalid")
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions()[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates the move from s to next and returns next, or an
// InvalidTransitionError when the state machine forbids it.
func (s Status) Transition(next Status) (Status, error) {
	if err := next.Validate(); err != nil {
		return StatusUnknown, err
	}
	if !s.CanTransitionTo(next) {
		return StatusUnknown, errs.NewInvalidTransitionError("robot", s.String(), next.String())
	}
	return next, nil
}

// IsEnRoute reports whether the robot is committed to moving toward a target
// node for order work.
func (s Status) IsEnRoute() bool {
	return s == StatusEnRouteToPickup || s == StatusDelivering
}

// StatusFromString parses the canonical status name.
func StatusFromString(str string) (Status, error) {
	for status, s := range getValidStatusStrings() {
		if s == str {
			return status, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidError("status is invalid")
}
