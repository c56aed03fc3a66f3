package commands

import (
	"context"

	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/fleet"
)

// CreateNodeCommandHandler registers new nodes in the delivery graph.
// Persists the node and publishes it into the fleet state store so that
// routing and dispatch see it immediately.
type CreateNodeCommandHandler struct {
	uowFactory NodeUoWFactory
	store      *fleet.Store
}

// NewCreateNodeCommandHandler creates a handler for node creation operations.
func NewCreateNodeCommandHandler(uowFactory NodeUoWFactory, store *fleet.Store) CreateNodeCommandHandler {
	return CreateNodeCommandHandler{
		uowFactory: uowFactory,
		store:      store,
	}
}

// Handle processes the node creation command.
// Builds the node aggregate, persists it, and registers it with the fleet
// state store once the transaction commits.
func (h CreateNodeCommandHandler) Handle(ctx context.Context, command CreateNodeCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	aggregate, err := node.NewNode(command.NodeID(), command.Name(), command.Location(), command.Kind())
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

	if err := uow.NodeRepository().Add(ctx, aggregate); err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	return h.store.AddNode(aggregate)
}
