package order

import (
	"fleet/internal/pkg/errs"
)

// Status represents the current state in the order lifecycle.
type Status int

const (
	// StatusUnknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	StatusUnknown Status = iota

	// StatusCreated is the initial status: the order waits for a robot.
	StatusCreated

	// StatusMatched means a robot has been assigned but not yet routed.
	StatusMatched

	// StatusPickupEnRoute means the assigned robot is traveling to the pickup node.
	StatusPickupEnRoute

	// StatusPickedUp means the robot holds the shipment at the pickup node.
	StatusPickedUp

	// StatusDeliveryEnRoute means the robot is traveling to the drop-off node.
	StatusDeliveryEnRoute

	// StatusDelivered is the successful terminal state.
	StatusDelivered

	// StatusCancelled is the failure/abort terminal state, reachable from
	// any non-terminal state.
	StatusCancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown:         "Unknown",
		StatusCreated:         "Created",
		StatusMatched:         "Matched",
		StatusPickupEnRoute:   "PickupEnRoute",
		StatusPickedUp:        "PickedUp",
		StatusDeliveryEnRoute: "DeliveryEnRoute",
		StatusDelivered:       "Delivered",
		StatusCancelled:       "Cancelled",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // StatusUnknown is intentionally excluded as it's invalid
	return map[Status]string{
		StatusCreated:         "Created",
		StatusMatched:         "Matched",
		StatusPickupEnRoute:   "PickupEnRoute",
		StatusPickedUp:        "PickedUp",
		StatusDeliveryEnRoute: "DeliveryEnRoute",
		StatusDelivered:       "Delivered",
		StatusCancelled:       "Cancelled",
	}
}

// forwardTransitions is the happy-path lifecycle. Cancellation is handled
// separately: it is reachable from any non-terminal state.
func forwardTransitions() map[Status]Status {
	return map[Status]Status{
		StatusCreated:         StatusMatched,
		StatusMatched:         StatusPickupEnRoute,
		StatusPickupEnRoute:   StatusPickedUp,
		StatusPickedUp:        StatusDeliveryEnRoute,
		StatusDeliveryEnRoute: StatusDelivered,
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

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsActive reports whether a robot is currently bound to the order.
func (s Status) IsActive() bool {
	switch s {
	case StatusMatched, StatusPickupEnRoute, StatusPickedUp, StatusDeliveryEnRoute:
		return true
	default:
		return false
	}
}

// Transition validates the move from s to next and returns next, or an
// InvalidTransitionError when the lifecycle forbids it. Valid moves are the
// single forward step of the happy path, plus Cancelled from any
// non-terminal state.
func (s Status) Transition(next Status) (Status, error) {
	if err := next.Validate(); err != nil {
		return StatusUnknown, err
	}

	if next == StatusCancelled {
		if s.IsTerminal() {
			return StatusUnknown, errs.NewInvalidTransitionError("order", s.String(), next.String())
		}
		return next, nil
	}

	if forward, ok := forwardTransitions()[s]; ok && forward == next {
		return next, nil
	}
	return StatusUnknown, errs.NewInvalidTransitionError("order", s.String(), next.String())
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
