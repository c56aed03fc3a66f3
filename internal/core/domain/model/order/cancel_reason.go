package order

import (
	"fleet/internal/pkg/errs"
)

// CancelReason records why an order reached the Cancelled state.
type CancelReason string

const (
	// CancelReasonNone is the zero reason for orders that were never cancelled.
	CancelReasonNone CancelReason = ""

	// CancelReasonRequested marks a cancellation requested by a user or operator.
	CancelReasonRequested CancelReason = "Requested"

	// CancelReasonRobotFailure marks a cancellation forced by battery
	// exhaustion of the assigned robot mid-route. The order needs external
	// re-dispatch; it is reported, never silently retried.
	CancelReasonRobotFailure CancelReason = "RobotFailure"

	// CancelReasonPaymentFailed marks a cancellation caused by a failed
	// payment settlement before pickup.
	CancelReasonPaymentFailed CancelReason = "PaymentFailed"
)

// Validate checks the reason names a real cause. None is not a valid cause
// for an explicit cancellation.
func (r CancelReason) Validate() error {
	switch r {
	case CancelReasonRequested, CancelReasonRobotFailure, CancelReasonPaymentFailed:
		return nil
	default:
		return errs.NewValueIsInvalidError("cancel reason")
	}
}

func (r CancelReason) String() string {
	if r == CancelReasonNone {
		return "None"
	}
	return string(r)
}
