package ports

import (
	"context"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/robot"
)

// RobotRepository defines the persistence contract for robot aggregates.
// Committed routes are runtime state and are not persisted; a restored
// robot resumes without a route and is re-dispatched.
type RobotRepository interface {
	// Add persists a new robot aggregate to storage.
	// The robot must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *robot.Robot) error

	// Update persists changes to an existing robot aggregate.
	Update(ctx context.Context, aggregate *robot.Robot) error

	// Get retrieves a robot aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error)

	// GetAll retrieves every robot.
	GetAll(ctx context.Context) ([]*robot.Robot, error)

	// Remove deletes a robot by its unique identifier. Callers must ensure
	// the robot is Idle or Offline with no active orders.
	Remove(ctx context.Context, id kernel.UUID) error
}
