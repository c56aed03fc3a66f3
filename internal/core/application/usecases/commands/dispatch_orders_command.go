package commands

import (
	"errors"

	"fleet/internal/pkg/guard"
)

var ErrDispatchOrdersCommandIsNotConstructed = errors.New(
	"DispatchOrdersCommand must be created via NewDispatchOrdersCommand constructor",
)

// DispatchOrdersCommand triggers one dispatch cycle: unassigned orders are
// paired with eligible idle robots and routes are committed.
//
// Example:
//
//	cmd := NewDispatchOrdersCommand()
//	handler := NewDispatchOrdersCommandHandler(uowFactory, store, dispatcher, publisher)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    log.Printf("dispatch cycle failed: %v", err)
//	}
type DispatchOrdersCommand struct {
	guard guard.ConstructorGuard
}

// NewDispatchOrdersCommand creates a new command to trigger a dispatch cycle.
func NewDispatchOrdersCommand() DispatchOrdersCommand {
	return DispatchOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
// Returns ErrDispatchOrdersCommandIsNotConstructed if validation fails.
func (c *DispatchOrdersCommand) Validate() error {
	return c.guard.Validate(
		ErrDispatchOrdersCommandIsNotConstructed,
	)
}
