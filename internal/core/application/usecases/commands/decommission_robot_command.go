package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrDecommissionRobotCommandIsNotConstructed = errors.New(
	"DecommissionRobotCommand must be created via NewDecommissionRobotCommand constructor",
)

// DecommissionRobotCommand represents a request to retire a robot from the
// fleet. Only Idle or Offline robots without active orders can be retired.
type DecommissionRobotCommand struct { //nolint:recvcheck //using for validation
	robotID kernel.UUID

	guard guard.ConstructorGuard
}

// NewDecommissionRobotCommand creates a command to retire a robot.
func NewDecommissionRobotCommand(robotID kernel.UUID) (DecommissionRobotCommand, error) {
	if err := robotID.Validate(); err != nil {
		return DecommissionRobotCommand{}, err
	}

	return DecommissionRobotCommand{
		robotID: robotID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c DecommissionRobotCommand) Validate() error {
	return c.guard.Validate(ErrDecommissionRobotCommandIsNotConstructed)
}

// RobotID returns the robot ID from the command.
func (c DecommissionRobotCommand) RobotID() kernel.UUID {
	return c.robotID
}
