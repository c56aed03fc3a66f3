package commands

import (
	"context"
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
	"fleet/internal/pkg/errs"
)

// CancelOrderCommandHandler aborts orders and unwinds their assignments.
//
// Cancellation is the only operation allowed to unwind an in-progress
// route: the assigned robot abandons its route where it stands and reverts
// to Idle, or to Charging when its battery sits below the reserve
// threshold. The order's lifecycle lock makes this safe to run concurrently
// with an in-flight dispatch commit for the same order.
type CancelOrderCommandHandler struct {
	uowFactory     UoWFactory
	store          *fleet.Store
	publisher      ports.EventPublisher
	reserveBattery float64
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
func NewCancelOrderCommandHandler(
	uowFactory UoWFactory,
	store *fleet.Store,
	publisher ports.EventPublisher,
	reserveBattery float64,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory:     uowFactory,
		store:          store,
		publisher:      publisher,
		reserveBattery: reserveBattery,
	}
}

// Handle processes the order cancellation command.
// Cancels the order, releases the assigned robot if any, persists both, and
// publishes the resulting state changes.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, command CancelOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	unlock := h.store.LockOrder(command.OrderID())
	defer unlock()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ord, err := uow.OrderRepository().Get(ctx, command.OrderID())
	if err != nil {
		return err
	}

	assignedRobot := ord.Robot()

	if err := ord.Cancel(command.Reason()); err != nil {
		return err
	}

	var released *robot.Robot
	var changes []fleet.OccupancyChange
	if assignedRobot != nil {
		snapshot, occ, err := h.releaseRobot(*assignedRobot)
		if err != nil {
			return err
		}
		if snapshot != nil {
			released = snapshot
			changes = occ
		}
	}

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		return err
	}
	if released != nil {
		if err := uow.RobotRepository().Update(ctx, released); err != nil {
			return err
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	if err := publishOrderState(ctx, h.publisher, ord); err != nil {
		return err
	}
	if released != nil {
		if err := publishRobotStatus(ctx, h.publisher, *released); err != nil {
			return err
		}
		if err := publishOccupancyChanges(ctx, h.publisher, changes); err != nil {
			return err
		}
	}
	return nil
}

// releaseRobot unwinds the robot's assignment via compare-and-set, retrying
// when a concurrent motion tick moves the status underneath it. An Offline
// robot has already shed its assignments and needs no release.
func (h CancelOrderCommandHandler) releaseRobot(robotID kernel.UUID) (*robot.Robot, []fleet.OccupancyChange, error) {
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		current, err := h.store.Robot(robotID)
		if err != nil {
			return nil, nil, err
		}
		if current.Status() == robot.StatusOffline || current.Status() == robot.StatusIdle {
			return nil, nil, nil
		}

		toCharging := !current.HasReserveBattery(h.reserveBattery)
		snapshot, changes, err := h.store.TryTransition(robotID, current.Status(),
			func(r *robot.Robot) error {
				return r.ReleaseAssignment(toCharging)
			})
		if errors.Is(err, errs.ErrStaleState) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return &snapshot, changes, nil
	}

	return nil, nil, errs.NewStaleStateError("robot "+robotID.String(), "releasable", "contended")
}
