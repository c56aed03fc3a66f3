package queries

import (
	"errors"
	"time"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery retrieves all orders that have not reached a terminal
// state, oldest first. Used by operator dashboards to watch the dispatch
// backlog and in-flight deliveries.
type GetActiveOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery creates a query to retrieve all non-terminal orders.
func NewGetActiveOrdersQuery() GetActiveOrdersQuery {
	return GetActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetActiveOrdersQueryIsNotConstructed if validation fails.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// OrderQueryResponse represents order information in the read model, shared
// by the active-order and per-user order queries. RobotID is nil until a
// dispatch cycle matches the order.
type OrderQueryResponse struct {
	ID            kernel.UUID
	PickupNodeID  kernel.UUID
	DropoffNodeID kernel.UUID
	RobotID       *kernel.UUID
	Status        string
	CancelReason  string
	CreatedAt     time.Time
}
