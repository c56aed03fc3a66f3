package commands

import (
	"context"

	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
)

// CreateRobotCommandHandler provisions new robots.
// Persists the robot, registers it with the fleet state store, and
// publishes its initial status so observers learn about it immediately.
type CreateRobotCommandHandler struct {
	uowFactory RobotUoWFactory
	store      *fleet.Store
	publisher  ports.EventPublisher
}

// NewCreateRobotCommandHandler creates a handler for robot provisioning.
func NewCreateRobotCommandHandler(
	uowFactory RobotUoWFactory,
	store *fleet.Store,
	publisher ports.EventPublisher,
) CreateRobotCommandHandler {
	return CreateRobotCommandHandler{
		uowFactory: uowFactory,
		store:      store,
		publisher:  publisher,
	}
}

// Handle processes the robot provisioning command.
// Builds the robot aggregate, activates it at the start node when one was
// given, persists it, and registers it with the fleet state store.
func (h CreateRobotCommandHandler) Handle(ctx context.Context, command CreateRobotCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	aggregate, err := robot.NewRobot(command.RobotID(), command.Name(), command.Model(), command.RobotType())
	if err != nil {
		return err
	}

	if startID := command.StartNodeID(); startID != nil {
		start, err := h.store.Node(*startID)
		if err != nil {
			return err
		}
		if err := aggregate.Activate(start.ID(), start.Location()); err != nil {
			return err
		}
	}

	if err := h.persist(ctx, aggregate); err != nil {
		return err
	}

	if err := h.store.AddRobot(aggregate); err != nil {
		return err
	}

	snapshot, err := h.store.Robot(aggregate.ID())
	if err != nil {
		return err
	}

	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return err
	}
	return publishRobotPosition(ctx, h.publisher, snapshot)
}

func (h CreateRobotCommandHandler) persist(ctx context.Context, aggregate *robot.Robot) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.RobotRepository().Add(ctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
