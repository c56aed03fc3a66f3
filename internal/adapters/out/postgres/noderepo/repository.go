package noderepo

import (
	"context"
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormNodeRepository implements NodeRepository using GORM.
type GormNodeRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormNodeRepository creates a new GORM node repository.
func NewGormNodeRepository(db *gorm.DB, tracker aggregateTracker) *GormNodeRepository {
	return &GormNodeRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new node to the database.
func (r *GormNodeRepository) Add(ctx context.Context, n *node.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}

	dto := fromDomain(n)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(n.ID(), n)
	return nil
}

// Get retrieves a node by ID.
func (r *GormNodeRepository) Get(ctx context.Context, id kernel.UUID) (*node.Node, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto NodeDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("node", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAll retrieves every node in the graph.
func (r *GormNodeRepository) GetAll(ctx context.Context) ([]*node.Node, error) {
	var dtos []NodeDTO
	if err := r.db.WithContext(ctx).Order("name").Find(&dtos).Error; err != nil {
		return nil, err
	}

	nodes := make([]*node.Node, 0, len(dtos))
	for _, dto := range dtos {
		n, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}

// Remove deletes a node by ID.
func (r *GormNodeRepository) Remove(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&NodeDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("node", id.String())
	}

	return nil
}
