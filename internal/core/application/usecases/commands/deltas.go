package commands

import (
	"context"

	"fleet/internal/core/domain/events"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"
)

// Delta publication helpers shared by command handlers. Handlers publish
// after the state change is committed, so observers never see a delta for a
// transition that was rolled back.

func publishRobotStatus(ctx context.Context, pub ports.EventPublisher, r robot.Robot) error {
	return pub.Publish(ctx, events.NewRobotStatusChanged(
		r.ID(), r.Status().String(), r.Battery(), r.CurrentNode(), r.TargetNode()))
}

func publishRobotPosition(ctx context.Context, pub ports.EventPublisher, r robot.Robot) error {
	pos, placed := r.Position()
	if !placed {
		return nil
	}
	return pub.Publish(ctx, events.NewRobotPositionChanged(r.ID(), pos, r.Battery()))
}

func publishOccupancyChanges(ctx context.Context, pub ports.EventPublisher, changes []fleet.OccupancyChange) error {
	for _, change := range changes {
		if err := pub.Publish(ctx, events.NewNodeOccupancyChanged(change.NodeID, change.Occupants)); err != nil {
			return err
		}
	}
	return nil
}

func publishOrderState(ctx context.Context, pub ports.EventPublisher, o *order.Order) error {
	return pub.Publish(ctx, events.NewOrderStateChanged(
		o.ID(), o.Status().String(), o.Robot(), string(o.CancelReason())))
}
