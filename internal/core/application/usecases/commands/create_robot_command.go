package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var (
	ErrCreateRobotCommandIsNotConstructed = errors.New(
		"CreateRobotCommand must be created via NewCreateRobotCommand constructor",
	)
	ErrModelIsRequired     = errors.New("model is required")
	ErrRobotTypeIsRequired = errors.New("robot type is required")
)

// CreateRobotCommand represents a request to provision a new robot.
// A robot provisioned with a start node is activated there immediately and
// becomes dispatchable; without one it stays Offline until activated.
//
// Example:
//
//	cmd, err := NewCreateRobotCommand("R-17", "MK2", "ground", &depotID)
//	if err != nil {
//	    return fmt.Errorf("invalid robot data: %w", err)
//	}
//
//	handler := NewCreateRobotCommandHandler(uowFactory, store, publisher)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create robot: %w", err)
//	}
//	fmt.Printf("Created robot with ID: %s", cmd.RobotID())
type CreateRobotCommand struct { //nolint:recvcheck //using for validation
	robotID     kernel.UUID
	name        string
	model       string
	robotType   string
	startNodeID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewCreateRobotCommand creates a command to provision a new robot.
// Automatically generates a unique ID for the robot. startNodeID is
// optional; nil provisions the robot Offline.
func NewCreateRobotCommand(name, model, robotType string, startNodeID *kernel.UUID) (CreateRobotCommand, error) {
	command := CreateRobotCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setRobotID(kernel.NewUUID()),
		command.setName(name),
		command.setModel(model),
		command.setRobotType(robotType),
		command.setStartNodeID(startNodeID),
	); err != nil {
		return CreateRobotCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateRobotCommandIsNotConstructed if validation fails.
func (c CreateRobotCommand) Validate() error {
	return c.guard.Validate(ErrCreateRobotCommandIsNotConstructed)
}

// RobotID returns the robot ID from the command.
func (c CreateRobotCommand) RobotID() kernel.UUID {
	return c.robotID
}

// Name returns the robot name from the command.
func (c CreateRobotCommand) Name() string {
	return c.name
}

// Model returns the robot model from the command.
func (c CreateRobotCommand) Model() string {
	return c.model
}

// RobotType returns the robot type from the command.
func (c CreateRobotCommand) RobotType() string {
	return c.robotType
}

// StartNodeID returns the optional activation node, nil when the robot is
// provisioned Offline.
func (c CreateRobotCommand) StartNodeID() *kernel.UUID {
	if c.startNodeID == nil {
		return nil
	}
	id := *c.startNodeID
	return &id
}

func (c *CreateRobotCommand) setRobotID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.robotID = id
	return nil
}

func (c *CreateRobotCommand) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *CreateRobotCommand) setModel(model string) error {
	if model == "" {
		return ErrModelIsRequired
	}

	c.model = model
	return nil
}

func (c *CreateRobotCommand) setRobotType(robotType string) error {
	if robotType == "" {
		return ErrRobotTypeIsRequired
	}

	c.robotType = robotType
	return nil
}

func (c *CreateRobotCommand) setStartNodeID(startNodeID *kernel.UUID) error {
	if startNodeID == nil {
		return nil
	}

	if err := startNodeID.Validate(); err != nil {
		return err
	}

	id := *startNodeID
	c.startNodeID = &id
	return nil
}
