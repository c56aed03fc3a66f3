// Package noderepo provides data transfer objects and mapping functions for node persistence.
// This package implements the repository pattern for the node domain entity, handling
// the conversion between domain entities and database representations.
package noderepo

import (
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"

	"github.com/google/uuid"
)

// NodeDTO represents the database structure for persisting graph nodes.
// Nodes are immutable after creation, so there is no update mapping.
type NodeDTO struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name     string      `gorm:"index"`
	Location GeoPointDTO `gorm:"embedded;embeddedPrefix:location_"`
	Kind     int         `gorm:"index"`
}

// TableName specifies the database table name for node entities.
// Overrides GORM's default naming convention to use "nodes".
func (NodeDTO) TableName() string {
	return "nodes"
}

// GeoPointDTO represents the embedded WGS84 coordinates within the node table.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
}

// fromDomain converts a node domain entity to its database representation.
func fromDomain(n *node.Node) NodeDTO {
	return NodeDTO{
		ID:   n.ID().Bytes(),
		Name: n.Name(),
		Location: GeoPointDTO{
			Latitude:  n.Location().Latitude(),
			Longitude: n.Location().Longitude(),
		},
		Kind: int(n.Kind()),
	}
}

// toDomain converts a database DTO to a node domain entity.
func toDomain(dto NodeDTO) (*node.Node, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return nil, err
	}

	return node.NewNode(id, dto.Name, location, node.Kind(dto.Kind))
}
