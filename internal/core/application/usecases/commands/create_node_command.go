package commands

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/pkg/guard"
)

var (
	ErrCreateNodeCommandIsNotConstructed = errors.New(
		"CreateNodeCommand must be created via NewCreateNodeCommand constructor",
	)
	ErrNameIsRequired = errors.New("name is required")
)

// CreateNodeCommand represents a request to register a new node in the
// delivery graph.
//
// Example:
//
//	cmd, err := NewCreateNodeCommand("Depot West", 52.52, 13.405, node.KindDepot)
//	if err != nil {
//	    return fmt.Errorf("invalid node data: %w", err)
//	}
//
//	handler := NewCreateNodeCommandHandler(uowFactory, store)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create node: %w", err)
//	}
//	fmt.Printf("Created node with ID: %s", cmd.NodeID())
type CreateNodeCommand struct { //nolint:recvcheck //using for validation
	nodeID   kernel.UUID
	name     string
	location kernel.GeoPoint
	kind     node.Kind

	guard guard.ConstructorGuard
}

// NewCreateNodeCommand creates a command to register a new node.
// Automatically generates a unique ID for the node.
func NewCreateNodeCommand(name string, latitude, longitude float64, kind node.Kind) (CreateNodeCommand, error) {
	location, err := kernel.NewGeoPoint(latitude, longitude)
	if err != nil {
		return CreateNodeCommand{}, err
	}

	command := CreateNodeCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setNodeID(kernel.NewUUID()),
		command.setName(name),
		command.setLocation(location),
		command.setKind(kind),
	); err != nil {
		return CreateNodeCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateNodeCommandIsNotConstructed if validation fails.
func (c CreateNodeCommand) Validate() error {
	return c.guard.Validate(ErrCreateNodeCommandIsNotConstructed)
}

// NodeID returns the node ID from the command.
func (c CreateNodeCommand) NodeID() kernel.UUID {
	return c.nodeID
}

// Name returns the node name from the command.
func (c CreateNodeCommand) Name() string {
	return c.name
}

// Location returns the node location from the command.
func (c CreateNodeCommand) Location() kernel.GeoPoint {
	return c.location
}

// Kind returns the node kind from the command.
func (c CreateNodeCommand) Kind() node.Kind {
	return c.kind
}

func (c *CreateNodeCommand) setNodeID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.nodeID = id
	return nil
}

func (c *CreateNodeCommand) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *CreateNodeCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}

func (c *CreateNodeCommand) setKind(kind node.Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	c.kind = kind
	return nil
}
