package commands

import (
	"context"
	"time"

	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
)

// CreateOrderCommandHandler registers new delivery orders.
// Verifies both endpoints exist in the delivery graph before persisting and
// publishes the order's initial state.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	store      *fleet.Store
	publisher  ports.EventPublisher
}

// NewCreateOrderCommandHandler creates a handler for order creation.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	store *fleet.Store,
	publisher ports.EventPublisher,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		store:      store,
		publisher:  publisher,
	}
}

// Handle processes the order creation command.
// Resolves both endpoint nodes, builds the order aggregate, persists it,
// and publishes the Created state.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, command CreateOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	if _, err := h.store.Node(command.PickupNodeID()); err != nil {
		return err
	}
	if _, err := h.store.Node(command.DropoffNodeID()); err != nil {
		return err
	}

	aggregate, err := order.NewOrder(
		command.OrderID(),
		command.SenderID(),
		command.ReceiverID(),
		command.PickupNodeID(),
		command.DropoffNodeID(),
		command.RequiredRobotType(),
		time.Now().UTC(),
		command.PaymentRef(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Add(ctx, aggregate); err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	return publishOrderState(ctx, h.publisher, aggregate)
}
