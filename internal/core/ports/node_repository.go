// Package ports defines the contracts between the core and infrastructure:
// repositories, the unit of work, and the delta publisher. These interfaces
// enable dependency inversion and testability.
package ports

import (
	"context"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
)

// NodeRepository defines the persistence contract for node aggregates.
// Nodes are immutable reference data; there is no update method.
type NodeRepository interface {
	// Add persists a new node aggregate to storage.
	// The node must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *node.Node) error

	// Get retrieves a node aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*node.Node, error)

	// GetAll retrieves every node.
	GetAll(ctx context.Context) ([]*node.Node, error)

	// Remove deletes a node by its unique identifier. Callers must ensure
	// no robot occupies or targets the node before removing it.
	Remove(ctx context.Context, id kernel.UUID) error
}
