package queries

import (
	"context"
	"database/sql"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetUserOrdersQueryHandler retrieves one user's orders from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetUserOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetUserOrdersQueryHandler creates a handler for user order history queries.
// Requires a GORM database connection for query execution.
func NewGetUserOrdersQueryHandler(db *gorm.DB) GetUserOrdersQueryHandler {
	return GetUserOrdersQueryHandler{db: db}
}

// Handle executes the query to retrieve the user's orders, newest first.
// The user may appear on either end of the delivery.
func (h GetUserOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetUserOrdersQuery,
) ([]OrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	userID := query.UserID().Bytes()

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
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC
	`, userID, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

// scanOrderRows converts order rows into read models, mapping database
// identifiers and enum values to domain types.
func scanOrderRows(rows *sql.Rows) ([]OrderQueryResponse, error) {
	orders := make([]OrderQueryResponse, 0)

	for rows.Next() {
		var response OrderQueryResponse
		var id, pickupNodeID, dropoffNodeID uuid.UUID
		var robotID *uuid.UUID
		var status int

		err := rows.Scan(
			&id,
			&pickupNodeID,
			&dropoffNodeID,
			&robotID,
			&status,
			&response.CancelReason,
			&response.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if response.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if response.PickupNodeID, err = kernel.UUIDFromBytes(pickupNodeID[:]); err != nil {
			return nil, err
		}
		if response.DropoffNodeID, err = kernel.UUIDFromBytes(dropoffNodeID[:]); err != nil {
			return nil, err
		}
		if robotID != nil {
			rID, idErr := kernel.UUIDFromBytes((*robotID)[:])
			if idErr != nil {
				return nil, idErr
			}
			response.RobotID = &rID
		}
		response.Status = order.Status(status).String()

		orders = append(orders, response)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
