package queries

import (
	"context"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/robot"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAllRobotsQueryHandler retrieves all robot information from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetAllRobotsQueryHandler struct {
	db *gorm.DB
}

// NewGetAllRobotsQueryHandler creates a handler for fleet retrieval queries.
// Requires a GORM database connection for query execution.
func NewGetAllRobotsQueryHandler(db *gorm.DB) GetAllRobotsQueryHandler {
	return GetAllRobotsQueryHandler{db: db}
}

// Handle executes the query to retrieve all robots.
// Returns a slice of robot read models sorted by name.
func (h GetAllRobotsQueryHandler) Handle(
	ctx context.Context,
	query GetAllRobotsQuery,
) ([]GetAllRobotsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	robots := make([]GetAllRobotsQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			model,
			robot_type,
			status,
			battery,
			latitude,
			longitude,
			active_orders
		FROM robots
		ORDER BY name
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var response GetAllRobotsQueryResponse
		var id uuid.UUID
		var status int

		err = rows.Scan(
			&id,
			&response.Name,
			&response.Model,
			&response.RobotType,
			&status,
			&response.Battery,
			&response.Latitude,
			&response.Longitude,
			&response.ActiveOrders,
		)
		if err != nil {
			return nil, err
		}

		robotID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		response.ID = robotID
		response.Status = robot.Status(status).String()

		robots = append(robots, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return robots, nil
}
