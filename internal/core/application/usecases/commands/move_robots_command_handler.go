package commands

import (
	"context"
	"errors"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/domain/model/route"
	"fleet/internal/core/domain/services"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
	"fleet/internal/pkg/errs"
)

// MotionParams configures the motion simulation.
type MotionParams struct {
	// StepKm is how far a robot travels in one tick.
	StepKm float64
	// CostPerKm is the battery fraction one kilometer consumes.
	CostPerKm float64
	// ChargeRate is the battery fraction restored per tick while docked.
	ChargeRate float64
}

// MoveRobotsCommandHandler advances the fleet by one time step.
//
// En-route robots move along their committed routes; position is
// interpolated, battery drains per kilometer. On arrival the robot's
// purpose decides the follow-up: docking at a charger, picking a package
// up and departing for the dropoff, or completing the delivery. Docked
// robots recharge until full, then resume a pending delivery or go Idle.
//
// Battery exhaustion mid-route strands the robot: it goes Offline where it
// stands and its orders are cancelled with reason RobotFailure. The robot
// status delta is published before the order cancellations, so observers
// see cause before effect. Stranded orders are not retried automatically;
// re-dispatch is an external recovery action.
type MoveRobotsCommandHandler struct {
	uowFactory UoWFactory
	store      *fleet.Store
	router     services.Router
	publisher  ports.EventPublisher
	params     MotionParams
}

// NewMoveRobotsCommandHandler creates a handler for motion ticks.
func NewMoveRobotsCommandHandler(
	uowFactory UoWFactory,
	store *fleet.Store,
	router services.Router,
	publisher ports.EventPublisher,
	params MotionParams,
) MoveRobotsCommandHandler {
	return MoveRobotsCommandHandler{
		uowFactory: uowFactory,
		store:      store,
		router:     router,
		publisher:  publisher,
		params:     params,
	}
}

// Handle processes one motion tick for the whole fleet.
func (h MoveRobotsCommandHandler) Handle(ctx context.Context, command MoveRobotsCommand) error {
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

	for _, snap := range h.store.ListRobots() {
		var err error
		switch snap.Status() {
		case robot.StatusEnRouteToPickup, robot.StatusDelivering:
			err = h.advanceRobot(ctx, uow, snap)
		case robot.StatusCharging:
			if _, traveling := snap.Route(); traveling {
				err = h.advanceRobot(ctx, uow, snap)
			} else {
				err = h.chargeRobot(ctx, uow, snap)
			}
		default:
		}
		if err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}

// advanceRobot moves one robot a step along its route and handles arrival
// or battery exhaustion.
func (h MoveRobotsCommandHandler) advanceRobot(ctx context.Context, uow UoW, snap robot.Robot) error {
	var arrived, exhausted bool
	snapshot, changes, err := h.store.TryTransition(snap.ID(), snap.Status(),
		func(r *robot.Robot) error {
			a, advErr := r.Advance(h.params.StepKm, h.params.CostPerKm)
			if errors.Is(advErr, robot.ErrBatteryExhausted) {
				exhausted = true
				return r.FailBattery()
			}
			if advErr != nil {
				return advErr
			}
			arrived = a
			return nil
		})
	if errors.Is(err, errs.ErrStaleState) {
		// Another actor (cancel, concurrent dispatch) moved the robot
		// between snapshot and claim; skip it this tick.
		return nil
	}
	if err != nil {
		return err
	}

	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}
	if err := publishRobotPosition(ctx, h.publisher, snapshot); err != nil {
		return err
	}
	if err := publishOccupancyChanges(ctx, h.publisher, changes); err != nil {
		return err
	}

	if exhausted {
		return h.strandRobot(ctx, uow, snapshot)
	}
	if !arrived {
		return nil
	}

	switch snap.Status() {
	case robot.StatusCharging:
		return h.dockAtCharger(ctx, uow, snapshot)
	case robot.StatusEnRouteToPickup:
		return h.completePickup(ctx, uow, snapshot)
	case robot.StatusDelivering:
		return h.completeDelivery(ctx, uow, snapshot)
	default:
		return nil
	}
}

// strandRobot reports a robot lost to battery exhaustion and cancels its
// orders. The robot's Offline delta precedes the order cancellations.
func (h MoveRobotsCommandHandler) strandRobot(ctx context.Context, uow UoW, snapshot robot.Robot) error {
	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return err
	}

	stranded, err := uow.OrderRepository().GetActiveByRobot(ctx, snapshot.ID())
	if err != nil {
		return err
	}

	for _, ord := range stranded {
		unlock := h.store.LockOrder(ord.ID())

		err := func() error {
			if ord.Status().IsTerminal() {
				return nil
			}
			if err := ord.Cancel(order.CancelReasonRobotFailure); err != nil {
				return err
			}
			if err := uow.OrderRepository().Update(ctx, ord); err != nil {
				return err
			}
			return publishOrderState(ctx, h.publisher, ord)
		}()
		unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// dockAtCharger switches an arrived charger-bound robot to docked charging.
func (h MoveRobotsCommandHandler) dockAtCharger(ctx context.Context, uow UoW, snap robot.Robot) error {
	snapshot, changes, err := h.store.TryTransition(snap.ID(), robot.StatusCharging,
		func(r *robot.Robot) error {
			return r.StartCharging()
		})
	if errors.Is(err, errs.ErrStaleState) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}
	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return err
	}
	return publishOccupancyChanges(ctx, h.publisher, changes)
}

// completePickup marks the robot's order picked up and sends the robot on
// toward the dropoff.
func (h MoveRobotsCommandHandler) completePickup(ctx context.Context, uow UoW, snap robot.Robot) error {
	ord, err := h.activeOrderInStatus(ctx, uow, snap.ID(), order.StatusPickupEnRoute)
	if err != nil {
		return err
	}
	if ord == nil {
		return nil
	}

	unlock := h.store.LockOrder(ord.ID())
	defer unlock()

	if err := ord.MarkPickedUp(); err != nil {
		return err
	}

	return h.departForDropoff(ctx, uow, snap, ord)
}

// chargeRobot raises a docked robot's battery one tick. A full robot
// resumes its pending delivery or returns to the idle pool.
func (h MoveRobotsCommandHandler) chargeRobot(ctx context.Context, uow UoW, snap robot.Robot) error {
	var full bool
	snapshot, _, err := h.store.TryTransition(snap.ID(), robot.StatusCharging,
		func(r *robot.Robot) error {
			f, chargeErr := r.ChargeTick(h.params.ChargeRate)
			full = f
			return chargeErr
		})
	if errors.Is(err, errs.ErrStaleState) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}
	if err := publishRobotPosition(ctx, h.publisher, snapshot); err != nil {
		return err
	}

	if !full {
		return nil
	}

	if snapshot.ActiveOrders() > 0 {
		ord, err := h.activeOrderInStatus(ctx, uow, snapshot.ID(), order.StatusPickedUp)
		if err != nil {
			return err
		}
		if ord != nil {
			unlock := h.store.LockOrder(ord.ID())
			defer unlock()
			return h.departForDropoff(ctx, uow, snapshot, ord)
		}
	}

	return h.becomeIdle(ctx, uow, snapshot)
}

// becomeIdle returns a fully charged robot with no pending work to the
// idle pool.
func (h MoveRobotsCommandHandler) becomeIdle(ctx context.Context, uow UoW, snap robot.Robot) error {
	snapshot, _, err := h.store.TryTransition(snap.ID(), robot.StatusCharging,
		func(r *robot.Robot) error {
			return r.BecomeIdle()
		})
	if errors.Is(err, errs.ErrStaleState) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}
	return publishRobotStatus(ctx, h.publisher, snapshot)
}

// departForDropoff routes a robot holding a package toward the order's
// dropoff node. When the direct leg exceeds the battery budget the robot
// detours to a charging stop first and the order waits in PickedUp; when no
// feasible route exists at all the order is abandoned as a robot failure.
func (h MoveRobotsCommandHandler) departForDropoff(
	ctx context.Context,
	uow UoW,
	snap robot.Robot,
	ord *order.Order,
) error {
	from, err := h.store.Node(*snap.CurrentNode())
	if err != nil {
		return err
	}
	to, err := h.store.Node(ord.DropoffNode())
	if err != nil {
		return err
	}

	rt, err := h.router.ShortestPath(
		from, to,
		snap.TravelBudgetKm(h.params.CostPerKm),
		1.0/h.params.CostPerKm,
		h.store.ListChargingNodes(),
	)
	if errors.Is(err, services.ErrInsufficientRange) {
		return h.abandonDelivery(ctx, uow, snap, ord)
	}
	if err != nil {
		return err
	}

	next := robot.StatusDelivering
	if rt.PassesThroughCharger() {
		// Commit only the charger leg; the delivery resumes once charged.
		rt, err = route.NewRoute(rt.Legs()[:1])
		if err != nil {
			return err
		}
		next = robot.StatusCharging
	}

	snapshot, changes, err := h.store.TryTransition(snap.ID(), snap.Status(),
		func(r *robot.Robot) error {
			return r.BeginRoute(rt, next)
		})
	if errors.Is(err, errs.ErrStaleState) {
		return nil
	}
	if err != nil {
		return err
	}

	if next == robot.StatusDelivering {
		if err := ord.StartDeliveryLeg(); err != nil {
			return err
		}
	}

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		return err
	}
	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}

	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return err
	}
	if err := publishOrderState(ctx, h.publisher, ord); err != nil {
		return err
	}
	return publishOccupancyChanges(ctx, h.publisher, changes)
}

// completeDelivery finishes the robot's delivery at the dropoff node.
func (h MoveRobotsCommandHandler) completeDelivery(ctx context.Context, uow UoW, snap robot.Robot) error {
	ord, err := h.activeOrderInStatus(ctx, uow, snap.ID(), order.StatusDeliveryEnRoute)
	if err != nil {
		return err
	}
	if ord == nil {
		return nil
	}

	unlock := h.store.LockOrder(ord.ID())
	defer unlock()

	if err := ord.MarkDelivered(); err != nil {
		return err
	}

	snapshot, changes, err := h.store.TryTransition(snap.ID(), robot.StatusDelivering,
		func(r *robot.Robot) error {
			return r.CompleteDelivery()
		})
	if errors.Is(err, errs.ErrStaleState) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		return err
	}
	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}

	if err := publishOrderState(ctx, h.publisher, ord); err != nil {
		return err
	}
	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return err
	}
	return publishOccupancyChanges(ctx, h.publisher, changes)
}

// abandonDelivery gives up on an undeliverable order: the order cancels as
// a robot failure and the robot sheds the assignment.
func (h MoveRobotsCommandHandler) abandonDelivery(
	ctx context.Context,
	uow UoW,
	snap robot.Robot,
	ord *order.Order,
) error {
	if err := ord.Cancel(order.CancelReasonRobotFailure); err != nil {
		return err
	}

	snapshot, changes, err := h.store.TryTransition(snap.ID(), snap.Status(),
		func(r *robot.Robot) error {
			return r.ReleaseAssignment(false)
		})
	if err != nil && !errors.Is(err, errs.ErrStaleState) {
		return err
	}

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		return err
	}

	if err := publishOrderState(ctx, h.publisher, ord); err != nil {
		return err
	}
	if errors.Is(err, errs.ErrStaleState) {
		return nil
	}

	if err := uow.RobotRepository().Update(ctx, &snapshot); err != nil {
		return err
	}
	if err := publishRobotStatus(ctx, h.publisher, snapshot); err != nil {
		return err
	}
	return publishOccupancyChanges(ctx, h.publisher, changes)
}

// activeOrderInStatus finds the robot's active order in the given lifecycle
// state, nil when there is none.
func (h MoveRobotsCommandHandler) activeOrderInStatus(
	ctx context.Context,
	uow UoW,
	robotID kernel.UUID,
	status order.Status,
) (*order.Order, error) {
	active, err := uow.OrderRepository().GetActiveByRobot(ctx, robotID)
	if err != nil {
		return nil, err
	}

	for _, ord := range active {
		if ord.Status() == status {
			return ord, nil
		}
	}
	return nil, nil
}
