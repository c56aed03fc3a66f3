// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrGetAllRobotsQueryIsNotConstructed = errors.New(
	"GetAllRobotsQuery must be created via NewGetAllRobotsQuery constructor",
)

// GetAllRobotsQuery retrieves information about every robot in the fleet.
// Returns robot identities, statuses, battery levels, and last known
// positions for monitoring dashboards.
//
// Example:
//
//	query := NewGetAllRobotsQuery()
//	handler := NewGetAllRobotsQueryHandler(db)
//
//	robots, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve robots: %w", err)
//	}
//
//	for _, r := range robots {
//	    fmt.Printf("Robot %s [%s] battery %.0f%%\n", r.Name, r.Status, r.Battery*100)
//	}
type GetAllRobotsQuery struct {
	guard guard.ConstructorGuard
}

// NewGetAllRobotsQuery creates a query to retrieve the whole fleet.
// This is a parameterless query that fetches the complete robot list.
func NewGetAllRobotsQuery() GetAllRobotsQuery {
	return GetAllRobotsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetAllRobotsQueryIsNotConstructed if validation fails.
func (q GetAllRobotsQuery) Validate() error {
	return q.guard.Validate(ErrGetAllRobotsQueryIsNotConstructed)
}

// GetAllRobotsQueryResponse represents robot information in the read model.
// Latitude and Longitude are nil for robots that were never placed on the
// graph.
type GetAllRobotsQueryResponse struct {
	ID           kernel.UUID
	Name         string
	Model        string
	RobotType    string
	Status       string
	Battery      float64
	Latitude     *float64
	Longitude    *float64
	ActiveOrders int
}
