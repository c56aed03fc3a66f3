// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"fleet/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// NodeRepoFactory provides access to the node repository within a transaction.
	NodeRepoFactory interface {
		NodeRepository() ports.NodeRepository
	}

	// RobotRepoFactory provides access to the robot repository within a transaction.
	RobotRepoFactory interface {
		RobotRepository() ports.RobotRepository
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// NodeUoW manages transactions for node-only operations.
	NodeUoW interface {
		TxManager
		NodeRepoFactory
	}

	// NodeUoWFactory creates new node unit of work instances.
	NodeUoWFactory interface {
		Create() NodeUoW
	}

	// RobotUoW manages transactions for robot-only operations.
	RobotUoW interface {
		TxManager
		RobotRepoFactory
	}

	// RobotUoWFactory creates new robot unit of work instances.
	RobotUoWFactory interface {
		Create() RobotUoW
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// UoW manages transactions across robot and order aggregates.
	// Used for commands that coordinate changes between multiple aggregate types.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   robotRepo := uow.RobotRepository()
	//   orderRepo := uow.OrderRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		RobotRepoFactory
		OrderRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)
