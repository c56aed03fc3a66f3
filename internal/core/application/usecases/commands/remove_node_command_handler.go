package commands

import (
	"context"

	"fleet/internal/core/fleet"
)

// RemoveNodeCommandHandler decommissions nodes from the delivery graph.
// The fleet state store is the arbiter of the in-use guard: a node that any
// robot occupies or targets cannot be removed.
type RemoveNodeCommandHandler struct {
	uowFactory NodeUoWFactory
	store      *fleet.Store
}

// NewRemoveNodeCommandHandler creates a handler for node removal operations.
func NewRemoveNodeCommandHandler(uowFactory NodeUoWFactory, store *fleet.Store) RemoveNodeCommandHandler {
	return RemoveNodeCommandHandler{
		uowFactory: uowFactory,
		store:      store,
	}
}

// Handle processes the node removal command.
// Removes the node from the fleet state store first, which enforces the
// occupancy guard, then deletes it from storage. A storage failure restores
// the node in the store.
func (h RemoveNodeCommandHandler) Handle(ctx context.Context, command RemoveNodeCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	aggregate, err := h.store.Node(command.NodeID())
	if err != nil {
		return err
	}

	if err := h.store.RemoveNode(command.NodeID()); err != nil {
		return err
	}

	if err := h.removeFromStorage(ctx, command); err != nil {
		_ = h.store.AddNode(aggregate)
		return err
	}

	return nil
}

func (h RemoveNodeCommandHandler) removeFromStorage(ctx context.Context, command RemoveNodeCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.NodeRepository().Remove(ctx, command.NodeID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
