package queries

import (
	"context"

	"fleet/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GetActiveOrdersQueryHandler retrieves non-terminal orders from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOrdersQueryHandler creates a handler for active order queries.
// Requires a GORM database connection for query execution.
func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

// Handle executes the query to retrieve all orders outside the terminal
// Delivered and Cancelled states, oldest first.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]OrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			pickup_node_id,
			dropoff_node_id,
			robot_id,
			status,
			cancel_reason,
			created_at
		FROM orders
		WHERE status NOT IN (?, ?)
		ORDER BY created_at
	`, int(order.StatusDelivered), int(order.StatusCancelled)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}
