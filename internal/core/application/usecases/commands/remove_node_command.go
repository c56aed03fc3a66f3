package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrRemoveNodeCommandIsNotConstructed = errors.New(
	"RemoveNodeCommand must be created via NewRemoveNodeCommand constructor",
)

// RemoveNodeCommand represents a request to decommission a node. Removal is
// refused while any robot occupies or targets the node.
type RemoveNodeCommand struct { //nolint:recvcheck //using for validation
	nodeID kernel.UUID

	guard guard.ConstructorGuard
}

// NewRemoveNodeCommand creates a command to decommission a node.
func NewRemoveNodeCommand(nodeID kernel.UUID) (RemoveNodeCommand, error) {
	if err := nodeID.Validate(); err != nil {
		return RemoveNodeCommand{}, err
	}

	return RemoveNodeCommand{
		nodeID: nodeID,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RemoveNodeCommand) Validate() error {
	return c.guard.Validate(ErrRemoveNodeCommandIsNotConstructed)
}

// NodeID returns the node ID from the command.
func (c RemoveNodeCommand) NodeID() kernel.UUID {
	return c.nodeID
}
