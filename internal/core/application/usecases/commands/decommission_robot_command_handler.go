package commands

import (
	"context"

	"fleet/internal/core/domain/events"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
)

// DecommissionRobotCommandHandler retires robots from the fleet.
// The fleet state store guards the operation: a robot with active work
// cannot be removed.
type DecommissionRobotCommandHandler struct {
	uowFactory RobotUoWFactory
	store      *fleet.Store
	publisher  ports.EventPublisher
}

// NewDecommissionRobotCommandHandler creates a handler for robot retirement.
func NewDecommissionRobotCommandHandler(
	uowFactory RobotUoWFactory,
	store *fleet.Store,
	publisher ports.EventPublisher,
) DecommissionRobotCommandHandler {
	return DecommissionRobotCommandHandler{
		uowFactory: uowFactory,
		store:      store,
		publisher:  publisher,
	}
}

// Handle processes the robot retirement command.
// Removes the robot from the fleet state store, which enforces the
// active-work guard, then deletes it from storage. A storage failure
// re-registers the robot in the store.
func (h DecommissionRobotCommandHandler) Handle(ctx context.Context, command DecommissionRobotCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	removed, err := h.store.RemoveRobot(command.RobotID())
	if err != nil {
		return err
	}

	if err := h.removeFromStorage(ctx, command); err != nil {
		_ = h.store.AddRobot(&removed)
		return err
	}

	if vacated := removed.CurrentNode(); vacated != nil {
		return h.publisher.Publish(ctx,
			events.NewNodeOccupancyChanged(*vacated, h.store.Occupants(*vacated)))
	}
	return nil
}

func (h DecommissionRobotCommandHandler) removeFromStorage(ctx context.Context, command DecommissionRobotCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.RobotRepository().Remove(ctx, command.RobotID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
