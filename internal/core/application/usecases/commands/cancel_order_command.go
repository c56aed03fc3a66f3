package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand represents a request to abort an order from any
// non-terminal state. Safe to issue concurrently with dispatch: the order's
// lifecycle lock arbitrates, and a cancellation arriving after a route
// commit still rolls the robot's assignment back.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	reason  order.CancelReason

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a command to cancel an order.
func NewCancelOrderCommand(orderID kernel.UUID, reason order.CancelReason) (CancelOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CancelOrderCommand{}, err
	}
	if err := reason.Validate(); err != nil {
		return CancelOrderCommand{}, err
	}

	return CancelOrderCommand{
		orderID: orderID,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

// OrderID returns the order ID from the command.
func (c CancelOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Reason returns the cancellation reason from the command.
func (c CancelOrderCommand) Reason() order.CancelReason {
	return c.reason
}
