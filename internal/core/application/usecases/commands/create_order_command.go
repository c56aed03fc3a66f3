package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a request to create a new delivery order
// between two nodes on behalf of a sender and receiver.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(senderID, receiverID, pickupID, dropoffID, "", "pay-42")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory, store, publisher)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
//	fmt.Printf("Created order with ID: %s", cmd.OrderID())
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID           kernel.UUID
	senderID          kernel.UUID
	receiverID        kernel.UUID
	pickupNodeID      kernel.UUID
	dropoffNodeID     kernel.UUID
	requiredRobotType string
	paymentRef        string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new delivery order.
// Automatically generates a unique ID for the order. requiredRobotType is
// optional; empty accepts any robot type.
func NewCreateOrderCommand(
	senderID, receiverID, pickupNodeID, dropoffNodeID kernel.UUID,
	requiredRobotType, paymentRef string,
) (CreateOrderCommand, error) {
	command := CreateOrderCommand{
		requiredRobotType: requiredRobotType,
		paymentRef:        paymentRef,
		guard:             guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(kernel.NewUUID()),
		command.setParty(&command.senderID, senderID),
		command.setParty(&command.receiverID, receiverID),
		command.setNode(&command.pickupNodeID, pickupNodeID),
		command.setNode(&command.dropoffNodeID, dropoffNodeID),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the order ID from the command.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// SenderID returns the sending user's ID from the command.
func (c CreateOrderCommand) SenderID() kernel.UUID {
	return c.senderID
}

// ReceiverID returns the receiving user's ID from the command.
func (c CreateOrderCommand) ReceiverID() kernel.UUID {
	return c.receiverID
}

// PickupNodeID returns the pickup node ID from the command.
func (c CreateOrderCommand) PickupNodeID() kernel.UUID {
	return c.pickupNodeID
}

// DropoffNodeID returns the dropoff node ID from the command.
func (c CreateOrderCommand) DropoffNodeID() kernel.UUID {
	return c.dropoffNodeID
}

// RequiredRobotType returns the required robot type, empty for any.
func (c CreateOrderCommand) RequiredRobotType() string {
	return c.requiredRobotType
}

// PaymentRef returns the opaque payment reference from the command.
func (c CreateOrderCommand) PaymentRef() string {
	return c.paymentRef
}

func (c *CreateOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *CreateOrderCommand) setParty(field *kernel.UUID, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	*field = id
	return nil
}

func (c *CreateOrderCommand) setNode(field *kernel.UUID, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	*field = id
	return nil
}
