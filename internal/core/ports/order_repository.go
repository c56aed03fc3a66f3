package ports

import (
	"context"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInCreatedStatus retrieves unassigned orders in creation order,
	// oldest first. Dispatch walks this list so that older orders are
	// matched before newer ones.
	GetAllInCreatedStatus(ctx context.Context) ([]*order.Order, error)

	// GetAllActive retrieves orders that are assigned and not yet in a
	// terminal state.
	GetAllActive(ctx context.Context) ([]*order.Order, error)

	// GetActiveByRobot retrieves the active orders assigned to a robot.
	GetActiveByRobot(ctx context.Context, robotID kernel.UUID) ([]*order.Order, error)
}
