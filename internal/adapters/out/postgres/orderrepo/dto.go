// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Indexed by status, robot assignment, and creation time for the dispatch
// cycle's oldest-first scan and the per-robot active-order lookups.
type OrderDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	SenderID          uuid.UUID `gorm:"type:uuid"`
	ReceiverID        uuid.UUID `gorm:"type:uuid;index"`
	PickupNodeID      uuid.UUID `gorm:"type:uuid"`
	DropoffNodeID     uuid.UUID `gorm:"type:uuid"`
	RequiredRobotType string
	RobotID           *uuid.UUID `gorm:"type:uuid;index"`
	Status            int        `gorm:"index"`
	CancelReason      string
	CreatedAt         time.Time `gorm:"index"`
	PaymentRef        string
	PaymentSettled    bool
	PaymentOK         bool
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(o *order.Order) OrderDTO {
	var robotID *uuid.UUID
	if id := o.Robot(); id != nil {
		raw := id.Bytes()
		robotID = &raw
	}

	settled, ok := o.PaymentSettled()

	return OrderDTO{
		ID:                o.ID().Bytes(),
		SenderID:          o.Sender().Bytes(),
		ReceiverID:        o.Receiver().Bytes(),
		PickupNodeID:      o.PickupNode().Bytes(),
		DropoffNodeID:     o.DropoffNode().Bytes(),
		RequiredRobotType: o.RequiredRobotType(),
		RobotID:           robotID,
		Status:            int(o.Status()),
		CancelReason:      string(o.CancelReason()),
		CreatedAt:         o.CreatedAt(),
		PaymentRef:        o.PaymentRef(),
		PaymentSettled:    settled,
		PaymentOK:         ok,
	}
}

// toDomain converts a database DTO to an order domain aggregate using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	senderID, err := kernel.UUIDFromBytes(dto.SenderID[:])
	if err != nil {
		return nil, err
	}
	receiverID, err := kernel.UUIDFromBytes(dto.ReceiverID[:])
	if err != nil {
		return nil, err
	}
	pickupNodeID, err := kernel.UUIDFromBytes(dto.PickupNodeID[:])
	if err != nil {
		return nil, err
	}
	dropoffNodeID, err := kernel.UUIDFromBytes(dto.DropoffNodeID[:])
	if err != nil {
		return nil, err
	}

	var robotID *kernel.UUID
	if dto.RobotID != nil {
		rID, robotErr := kernel.UUIDFromBytes((*dto.RobotID)[:])
		if robotErr != nil {
			return nil, robotErr
		}
		robotID = &rID
	}

	return order.RestoreOrder(
		id, senderID, receiverID, pickupNodeID, dropoffNodeID,
		dto.RequiredRobotType,
		robotID,
		order.Status(dto.Status),
		order.CancelReason(dto.CancelReason),
		dto.CreatedAt,
		dto.PaymentRef,
		dto.PaymentSettled, dto.PaymentOK,
	)
}
