package commands

import (
	"context"
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/domain/model/route"
	"fleet/internal/core/domain/services"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
	"fleet/internal/pkg/errs"
)

// maxClaimAttempts bounds compare-and-set retries per order per cycle so a
// contended cycle cannot livelock. Losing all attempts leaves the order
// Created for the next cycle.
const maxClaimAttempts = 3

// DispatchOrdersCommandHandler runs one dispatch cycle.
//
// Walks unassigned orders oldest first, asks the dispatcher service for the
// best robot and pickup route, and commits the pairing through the fleet
// store's compare-and-set. A robot claimed by a concurrent cycle surfaces
// as a stale-state error and the pairing is retried with the next-best
// candidate. Orders without capacity stay Created; that is a normal
// outcome, not a failure.
//
// When routing to a pickup requires a charging stop, the robot is sent to
// the charger alone and the order match is deferred to a later cycle.
// Independently, idle robots below the reserve threshold are sent to the
// nearest reachable charger.
type DispatchOrdersCommandHandler struct {
	uowFactory     UoWFactory
	store          *fleet.Store
	dispatcher     services.Dispatcher
	publisher      ports.EventPublisher
	reserveBattery float64
}

// NewDispatchOrdersCommandHandler creates a handler for dispatch cycles.
func NewDispatchOrdersCommandHandler(
	uowFactory UoWFactory,
	store *fleet.Store,
	dispatcher services.Dispatcher,
	publisher ports.EventPublisher,
	reserveBattery float64,
) DispatchOrdersCommandHandler {
	return DispatchOrdersCommandHandler{
		uowFactory:     uowFactory,
		store:          store,
		dispatcher:     dispatcher,
		publisher:      publisher,
		reserveBattery: reserveBattery,
	}
}

// Handle processes one dispatch cycle.
func (h DispatchOrdersCommandHandler) Handle(ctx context.Context, command DispatchOrdersCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := uow.OrderRepository().GetAllInCreatedStatus(ctx)
	if err != nil {
		return err
	}

	nodes := h.store.ListNodes()
	for _, ord := range orders {
		if err := h.dispatchOrder(ctx, uow, ord, nodes); err != nil {
			return err
		}
	}

	if err := h.sendLowBatteryRobotsToCharge(ctx, nodes); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// dispatchOrder attempts to pair one order with a robot. The order's
// lifecycle lock serializes this against a concurrent cancellation.
func (h DispatchOrdersCommandHandler) dispatchOrder(
	ctx context.Context,
	uow UoW,
	ord *order.Order,
	nodes []*node.Node,
) error {
	unlock := h.store.LockOrder(ord.ID())
	defer unlock()

	// A cancellation may have landed since the order list was read.
	ord, err := uow.OrderRepository().Get(ctx, ord.ID())
	if err != nil {
		return err
	}
	if ord.Status() != order.StatusCreated {
		return nil
	}

	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		assignment, err := h.dispatcher.Match(ord, h.store.ListIdleRobots(), nodes)
		if errors.Is(err, services.ErrNoEligibleRobot) {
			return nil
		}
		if err != nil {
			return err
		}

		if assignment.ViaCharger {
			claimed, err := h.sendToChargerFirst(ctx, assignment)
			if errors.Is(err, errs.ErrStaleState) {
				continue
			}
			if err != nil || claimed {
				return err
			}
			continue
		}

		committed, err := h.commitAssignment(ctx, uow, ord, assignment)
		if errors.Is(err, errs.ErrStaleState) {
			continue
		}
		if err != nil || committed {
			return err
		}
	}

	return nil
}

// commitAssignment claims the robot via compare-and-set, transitions the
// order, and persists both. Returns committed=false with a stale-state
// error when another cycle claimed the robot first.
func (h DispatchOrdersCommandHandler) commitAssignment(
	ctx context.Context,
	uow UoW,
	ord *order.Order,
	assignment services.Assignment,
) (bool, error) {
	// A robot already standing at the pickup node skips the pickup leg and
	// departs straight for the dropoff.
	next := robot.StatusEnRouteToPickup
	if assignment.PickupRoute.Origin().IsEqual(ord.PickupNode()) {
		next = robot.StatusDelivering
	}

	snapshot, changes, err := h.store.TryTransition(
		assignment.Robot.ID(), robot.StatusIdle,
		func(r *robot.Robot) error {
			if err := r.BeginRoute(assignment.PickupRoute, next); err != nil {
				return err
			}
			r.IncrementActiveOrders()
			return nil
		})
	if err != nil {
		return false, err
	}

	if err := h.transitionOrder(ord, snapshot.ID(), next); err != nil {
		h.releaseClaim(snapshot.ID(), next)
		return false, err
	}

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		h.releaseClaim(snapshot.ID(), next)
		return false, err
	}
	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		h.releaseClaim(snapshot.ID(), next)
		return false, err
	}

	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return true, err
	}
	if err := publishOrderState(ctx, h.publisher, ord); err != nil {
		return true, err
	}
	return true, publishOccupancyChanges(ctx, h.publisher, changes)
}

func (h DispatchOrdersCommandHandler) transitionOrder(ord *order.Order, robotID kernel.UUID, next robot.Status) error {
	if err := ord.Assign(robotID); err != nil {
		return err
	}
	if err := ord.StartPickupLeg(); err != nil {
		return err
	}
	if next != robot.StatusDelivering {
		return nil
	}
	if err := ord.MarkPickedUp(); err != nil {
		return err
	}
	return ord.StartDeliveryLeg()
}

// releaseClaim compensates a claimed robot after a persistence failure.
func (h DispatchOrdersCommandHandler) releaseClaim(robotID kernel.UUID, claimed robot.Status) {
	_, _, _ = h.store.TryTransition(robotID, claimed, func(r *robot.Robot) error {
		return r.ReleaseAssignment(false)
	})
}

// sendToChargerFirst commits only the charger leg of a two-leg pickup
// route, deferring the order match until the robot has recharged.
func (h DispatchOrdersCommandHandler) sendToChargerFirst(
	ctx context.Context,
	assignment services.Assignment,
) (bool, error) {
	chargerLeg, err := route.NewRoute(assignment.PickupRoute.Legs()[:1])
	if err != nil {
		return false, err
	}

	snapshot, changes, err := h.store.TryTransition(
		assignment.Robot.ID(), robot.StatusIdle,
		func(r *robot.Robot) error {
			return r.BeginRoute(chargerLeg, robot.StatusCharging)
		})
	if err != nil {
		return false, err
	}

	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return true, err
	}
	return true, publishOccupancyChanges(ctx, h.publisher, changes)
}

// sendLowBatteryRobotsToCharge routes idle robots below the reserve
// threshold to the nearest reachable charger. Robots with no charger in
// range stay where they are; that is not an error.
func (h DispatchOrdersCommandHandler) sendLowBatteryRobotsToCharge(ctx context.Context, nodes []*node.Node) error {
	for _, r := range h.store.ListIdleRobots() {
		if r.HasReserveBattery(h.reserveBattery) {
			continue
		}

		rt, err := h.dispatcher.ChargerRoute(r, nodes)
		if errors.Is(err, services.ErrInsufficientRange) {
			continue
		}
		if err != nil {
			return err
		}

		snapshot, changes, err := h.store.TryTransition(r.ID(), robot.StatusIdle,
			func(rb *robot.Robot) error {
				return rb.BeginRoute(rt, robot.StatusCharging)
			})
		if errors.Is(err, errs.ErrStaleState) {
			continue
		}
		if err != nil {
			return err
		}

		if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
			return err
		}
		if err := publishOccupancyChanges(ctx, h.publisher, changes); err != nil {
			return err
		}
	}
	return nil
}
