package commands

import (
	"errors"

	"fleet/internal/pkg/guard"
)

var ErrMoveRobotsCommandIsNotConstructed = errors.New(
	"MoveRobotsCommand must be created via NewMoveRobotsCommand constructor",
)

// MoveRobotsCommand triggers one motion tick: every robot with a committed
// route advances along it, consuming battery, and docked robots recharge.
//
// Example:
//
//	handler := NewMoveRobotsCommandHandler(uowFactory, store, router, publisher, params)
//	cmd := NewMoveRobotsCommand()
//
//	// Execute one tick; typically called periodically by a scheduler.
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("motion tick failed: %w", err)
//	}
type MoveRobotsCommand struct {
	guard guard.ConstructorGuard
}

// NewMoveRobotsCommand creates a new command to trigger a motion tick.
func NewMoveRobotsCommand() MoveRobotsCommand {
	return MoveRobotsCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
// Returns ErrMoveRobotsCommandIsNotConstructed if validation fails.
func (c *MoveRobotsCommand) Validate() error {
	return c.guard.Validate(
		ErrMoveRobotsCommandIsNotConstructed,
	)
}
