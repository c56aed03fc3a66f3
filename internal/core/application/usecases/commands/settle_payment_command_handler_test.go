package commands_test

import (
	"testing"
	"time"

	"fleet/internal/core/application/usecases/commands"
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/fleet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettlementFixture(t *testing.T, ord *order.Order) (
	*MockOrderRepository, *MockUoWFactory, *MockUoWFactory,
) {
	t.Helper()
	ctx := t.Context()

	orderRepo := &MockOrderRepository{}
	uow := &MockUoW{}
	settleFactory := &MockUoWFactory{}
	cancelFactory := &MockUoWFactory{}

	settleFactory.On("Create").Return(uow)
	cancelFactory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	orderRepo.On("Get", ctx, ord.ID()).Return(ord, nil)
	return orderRepo, settleFactory, cancelFactory
}

func newSettlementHandler(
	t *testing.T,
	settleFactory, cancelFactory *MockUoWFactory,
	store *fleet.Store,
	publisher *RecordingPublisher,
) commands.SettlePaymentCommandHandler {
	t.Helper()
	cancelHandler := commands.NewCancelOrderCommandHandler(
		cancelFactory, store, publisher, testReserveBattery,
	)
	return commands.NewSettlePaymentCommandHandler(
		settleFactory, cancelHandler, store, publisher,
	)
}

func TestSettlePaymentCommandHandler_Handle_SuccessfulSettlementOnlyRecorded(t *testing.T) {
	ctx := t.Context()
	store := fleet.NewStore()
	pickup := mustNode(t, "Pickup", 52.52, 13.405, node.KindPickup)
	dropoff := mustNode(t, "Dropoff", 52.53, 13.42, node.KindDropoff)
	ord := newOrderBetween(t, pickup, dropoff, time.Now().UTC())

	orderRepo, settleFactory, cancelFactory := newSettlementFixture(t, ord)
	orderRepo.On("Update", ctx, ord).Return(nil).Once()

	publisher := &RecordingPublisher{}
	handler := newSettlementHandler(t, settleFactory, cancelFactory, store, publisher)

	cmd, err := commands.NewSettlePaymentCommand(ord.ID(), true, "txn-1")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(ctx, cmd))

	settled, ok := ord.PaymentSettled()
	assert.True(t, settled)
	assert.True(t, ok)
	assert.Equal(t, order.StatusCreated, ord.Status())
	assert.Empty(t, publisher.Deltas())
	cancelFactory.AssertNotCalled(t, "Create")
	orderRepo.AssertExpectations(t)
}

func TestSettlePaymentCommandHandler_Handle_FailureBeforePickupCancelsOrder(t *testing.T) {
	ctx := t.Context()
	store := fleet.NewStore()
	pickup := mustNode(t, "Pickup", 52.52, 13.405, node.KindPickup)
	dropoff := mustNode(t, "Dropoff", 52.53, 13.42, node.KindDropoff)
	ord := newOrderBetween(t, pickup, dropoff, time.Now().UTC())

	orderRepo, settleFactory, cancelFactory := newSettlementFixture(t, ord)
	orderRepo.On("Update", ctx, ord).Return(nil).Twice()

	publisher := &RecordingPublisher{}
	handler := newSettlementHandler(t, settleFactory, cancelFactory, store, publisher)

	cmd, err := commands.NewSettlePaymentCommand(ord.ID(), false, "txn-2")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, order.StatusCancelled, ord.Status())
	assert.Equal(t, order.CancelReasonPaymentFailed, ord.CancelReason())

	deltas := publisher.Deltas()
	require.Len(t, deltas, 1)
	assert.Equal(t, ord.ID().String(), deltas[0].EntityID)
	assert.Equal(t, "Cancelled", deltas[0].OrderState.Status)
	assert.Equal(t, "PaymentFailed", deltas[0].OrderState.CancelReason)
	orderRepo.AssertExpectations(t)
}

func TestSettlePaymentCommandHandler_Handle_FailureAfterPickupOnlyRecorded(t *testing.T) {
	ctx := t.Context()
	store := fleet.NewStore()
	pickup := mustNode(t, "Pickup", 52.52, 13.405, node.KindPickup)
	dropoff := mustNode(t, "Dropoff", 52.53, 13.42, node.KindDropoff)
	robotID := idleRobotAt(t, "R-1", pickup).ID()

	ord, err := order.RestoreOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pickup.ID(), dropoff.ID(), "",
		&robotID, order.StatusPickedUp, order.CancelReasonNone,
		time.Now().UTC(), "pay-ref", false, false,
	)
	require.NoError(t, err)

	orderRepo, settleFactory, cancelFactory := newSettlementFixture(t, ord)
	orderRepo.On("Update", ctx, ord).Return(nil).Once()

	publisher := &RecordingPublisher{}
	handler := newSettlementHandler(t, settleFactory, cancelFactory, store, publisher)

	cmd, err := commands.NewSettlePaymentCommand(ord.ID(), false, "txn-3")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, order.StatusPickedUp, ord.Status())
	settled, ok := ord.PaymentSettled()
	assert.True(t, settled)
	assert.False(t, ok)
	assert.Empty(t, publisher.Deltas())
	cancelFactory.AssertNotCalled(t, "Create")
}

func TestSettlePaymentCommandHandler_Handle_ValidationError(t *testing.T) {
	settleFactory := &MockUoWFactory{}
	cancelFactory := &MockUoWFactory{}
	handler := newSettlementHandler(t, settleFactory, cancelFactory, fleet.NewStore(), &RecordingPublisher{})

	err := handler.Handle(t.Context(), commands.SettlePaymentCommand{})
	require.Error(t, err)
	assert.ErrorIs(t, err, commands.ErrSettlePaymentCommandIsNotConstructed)
	settleFactory.AssertNotCalled(t, "Create")
}
