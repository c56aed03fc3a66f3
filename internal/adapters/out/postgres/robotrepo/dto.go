// Package robotrepo provides data transfer objects and mapping functions for robot persistence.
// This package implements the repository pattern for the robot domain aggregate, handling
// the conversion between domain entities and database representations.
//
// Committed routes are deliberate runtime state and are not persisted: a
// robot restored mid-route keeps its status, position, and target node, and
// waits for a fresh dispatch or operator action to re-route it.
package robotrepo

import (
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/robot"

	"github.com/google/uuid"
)

// RobotDTO represents the database structure for persisting robot aggregates.
type RobotDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string
	Model         string
	RobotType     string
	Status        int     `gorm:"index"`
	Battery       float64 `gorm:"type:double precision"`
	CurrentNodeID *uuid.UUID `gorm:"type:uuid"`
	TargetNodeID  *uuid.UUID `gorm:"type:uuid"`
	Latitude      *float64   `gorm:"type:double precision"`
	Longitude     *float64   `gorm:"type:double precision"`
	ActiveOrders  int
}

// TableName specifies the database table name for robot entities.
// Overrides GORM's default naming convention to use "robots".
func (RobotDTO) TableName() string {
	return "robots"
}

// fromDomain converts a robot domain aggregate to its database representation.
// An unplaced robot persists with null coordinates.
func fromDomain(r *robot.Robot) RobotDTO {
	dto := RobotDTO{
		ID:           r.ID().Bytes(),
		Name:         r.Name(),
		Model:        r.Model(),
		RobotType:    r.RobotType(),
		Status:       int(r.Status()),
		Battery:      r.Battery(),
		ActiveOrders: r.ActiveOrders(),
	}

	if id := r.CurrentNode(); id != nil {
		raw := id.Bytes()
		dto.CurrentNodeID = &raw
	}
	if id := r.TargetNode(); id != nil {
		raw := id.Bytes()
		dto.TargetNodeID = &raw
	}
	if pos, placed := r.Position(); placed {
		lat := pos.Latitude()
		lon := pos.Longitude()
		dto.Latitude = &lat
		dto.Longitude = &lon
	}

	return dto
}

// toDomain converts a database DTO to a robot domain aggregate using RestoreRobot.
func toDomain(dto RobotDTO) (*robot.Robot, error) {
	var currentNodeID, targetNodeID *kernel.UUID
	if dto.CurrentNodeID != nil {
		id, err := kernel.UUIDFromBytes((*dto.CurrentNodeID)[:])
		if err != nil {
			return nil, err
		}
		currentNodeID = &id
	}
	if dto.TargetNodeID != nil {
		id, err := kernel.UUIDFromBytes((*dto.TargetNodeID)[:])
		if err != nil {
			return nil, err
		}
		targetNodeID = &id
	}

	var position *kernel.GeoPoint
	if dto.Latitude != nil && dto.Longitude != nil {
		pos, err := kernel.NewGeoPoint(*dto.Latitude, *dto.Longitude)
		if err != nil {
			return nil, err
		}
		position = &pos
	}

	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	return robot.RestoreRobot(
		id,
		dto.Name, dto.Model, dto.RobotType,
		robot.Status(dto.Status),
		dto.Battery,
		currentNodeID, targetNodeID,
		position,
		dto.ActiveOrders,
	)
}
