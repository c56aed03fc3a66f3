package queries

import (
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/pkg/guard"
)

var ErrGetUserOrdersQueryIsNotConstructed = errors.New(
	"GetUserOrdersQuery must be created via NewGetUserOrdersQuery constructor",
)

// GetUserOrdersQuery retrieves all orders a user participates in, as sender
// or receiver, newest first.
type GetUserOrdersQuery struct {
	userID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetUserOrdersQuery creates a query for one user's order history.
func NewGetUserOrdersQuery(userID kernel.UUID) (GetUserOrdersQuery, error) {
	if err := userID.Validate(); err != nil {
		return GetUserOrdersQuery{}, err
	}

	return GetUserOrdersQuery{
		userID: userID,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetUserOrdersQueryIsNotConstructed if validation fails.
func (q GetUserOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetUserOrdersQueryIsNotConstructed)
}

// UserID returns the user ID from the query.
func (q GetUserOrdersQuery) UserID() kernel.UUID {
	return q.userID
}
