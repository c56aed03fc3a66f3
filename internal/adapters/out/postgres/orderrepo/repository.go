package orderrepo

import (
	"context"
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order to the database.
//
// Uses Select("*") so that fields reset to their zero values (an unassigned
// robot, a cleared payment flag) are written rather than skipped.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllInCreatedStatus retrieves unassigned orders oldest first. Dispatch
// fairness depends on this ordering.
func (r *GormOrderRepository) GetAllInCreatedStatus(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Order("created_at").
		Find(&dtos, "status = ?", order.StatusCreated).Error; err != nil {
		return nil, err
	}

	return toDomainAll(dtos)
}

// GetAllActive retrieves all orders not yet in a terminal state.
func (r *GormOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Order("created_at").
		Find(&dtos, "status NOT IN ?", []int{
			int(order.StatusDelivered), int(order.StatusCancelled),
		}).Error; err != nil {
		return nil, err
	}

	return toDomainAll(dtos)
}

// GetActiveByRobot retrieves the robot's non-terminal orders.
func (r *GormOrderRepository) GetActiveByRobot(ctx context.Context, robotID kernel.UUID) ([]*order.Order, error) {
	if err := robotID.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Find(&dtos, "robot_id = ? AND status NOT IN ?", robotID.Bytes(), []int{
			int(order.StatusDelivered), int(order.StatusCancelled),
		}).Error; err != nil {
		return nil, err
	}

	return toDomainAll(dtos)
}

func toDomainAll(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
