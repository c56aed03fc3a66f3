package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrSettlePaymentCommandIsNotConstructed = errors.New(
	"SettlePaymentCommand must be created via NewSettlePaymentCommand constructor",
)

// SettlePaymentCommand carries a settlement outcome from the payment
// collaborator. The provider-specific flow is opaque; only the outcome and
// transaction reference reach the core.
type SettlePaymentCommand struct { //nolint:recvcheck //using for validation
	orderID        kernel.UUID
	succeeded      bool
	transactionRef string

	guard guard.ConstructorGuard
}

// NewSettlePaymentCommand creates a command recording a payment outcome.
func NewSettlePaymentCommand(orderID kernel.UUID, succeeded bool, transactionRef string) (SettlePaymentCommand, error) {
	if err := orderID.Validate(); err != nil {
		return SettlePaymentCommand{}, err
	}

	return SettlePaymentCommand{
		orderID:        orderID,
		succeeded:      succeeded,
		transactionRef: transactionRef,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c SettlePaymentCommand) Validate() error {
	return c.guard.Validate(ErrSettlePaymentCommandIsNotConstructed)
}

// OrderID returns the order ID from the command.
func (c SettlePaymentCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Succeeded reports whether the settlement succeeded.
func (c SettlePaymentCommand) Succeeded() bool {
	return c.succeeded
}

// TransactionRef returns the provider transaction reference.
func (c SettlePaymentCommand) TransactionRef() string {
	return c.transactionRef
}
