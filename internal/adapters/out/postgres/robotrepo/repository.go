package robotrepo

import (
	"context"
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormRobotRepository implements RobotRepository using GORM.
type GormRobotRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormRobotRepository creates a new GORM robot repository.
func NewGormRobotRepository(db *gorm.DB, tracker aggregateTracker) *GormRobotRepository {
	return &GormRobotRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new robot to the database.
func (r *GormRobotRepository) Add(ctx context.Context, aggregate *robot.Robot) error {
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

// Update saves an existing robot to the database.
//
// Uses Select("*") so that cleared optional fields (target node, current
// node) overwrite their previous values instead of being skipped as zero.
func (r *GormRobotRepository) Update(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&RobotDTO{}).
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

// Get retrieves a robot by ID.
func (r *GormRobotRepository) Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RobotDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("robot", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAll retrieves the whole fleet.
func (r *GormRobotRepository) GetAll(ctx context.Context) ([]*robot.Robot, error) {
	var dtos []RobotDTO
	if err := r.db.WithContext(ctx).Order("name").Find(&dtos).Error; err != nil {
		return nil, err
	}

	robots := make([]*robot.Robot, 0, len(dtos))
	for _, dto := range dtos {
		rb, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		robots = append(robots, rb)
	}

	return robots, nil
}

// Remove deletes a robot by ID.
func (r *GormRobotRepository) Remove(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&RobotDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("robot", id.String())
	}

	return nil
}
