package commands

import (
	"context"

	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
)

// SettlePaymentCommandHandler records payment settlement outcomes.
// A failed settlement on an order that has not been picked up yet cancels
// the order with reason PaymentFailed; once the package is on board the
// delivery completes regardless and the failure is left for reconciliation.
type SettlePaymentCommandHandler struct {
	uowFactory    UoWFactory
	cancelHandler CancelOrderCommandHandler
	store         *fleet.Store
	publisher     ports.EventPublisher
}

// NewSettlePaymentCommandHandler creates a handler for payment settlements.
func NewSettlePaymentCommandHandler(
	uowFactory UoWFactory,
	cancelHandler CancelOrderCommandHandler,
	store *fleet.Store,
	publisher ports.EventPublisher,
) SettlePaymentCommandHandler {
	return SettlePaymentCommandHandler{
		uowFactory:    uowFactory,
		cancelHandler: cancelHandler,
		store:         store,
		publisher:     publisher,
	}
}

// Handle processes the payment settlement command.
func (h SettlePaymentCommandHandler) Handle(ctx context.Context, command SettlePaymentCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	mustCancel, err := h.recordOutcome(ctx, command)
	if err != nil {
		return err
	}

	if !mustCancel {
		return nil
	}

	cancel, err := NewCancelOrderCommand(command.OrderID(), order.CancelReasonPaymentFailed)
	if err != nil {
		return err
	}
	return h.cancelHandler.Handle(ctx, cancel)
}

// recordOutcome persists the settlement outcome and reports whether a
// failed payment requires cancelling the order.
func (h SettlePaymentCommandHandler) recordOutcome(ctx context.Context, command SettlePaymentCommand) (bool, error) {
	unlock := h.store.LockOrder(command.OrderID())
	defer unlock()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ord, err := uow.OrderRepository().Get(ctx, command.OrderID())
	if err != nil {
		return false, err
	}

	if err := ord.SettlePayment(command.Succeeded(), command.TransactionRef()); err != nil {
		return false, err
	}

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		return false, err
	}

	if err := uow.Commit(ctx); err != nil {
		return false, err
	}

	beforePickup := ord.Status() == order.StatusCreated ||
		ord.Status() == order.StatusMatched ||
		ord.Status() == order.StatusPickupEnRoute
	return !command.Succeeded() && beforePickup, nil
}
