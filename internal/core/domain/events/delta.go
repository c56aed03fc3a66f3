// Package events defines the Delta: a single, sequenced state-change
// notification pushed to observers of the fleet.
//
// A Delta is a tagged variant over the four observable change kinds. Exactly
// one payload field is set, matching Kind. Sequence numbers are per entity
// and monotonically increasing; they are stamped by the event publisher at
// publish time, so subscribers can restore per-entity order and de-duplicate
// after at-least-once delivery.
package events

import (
	"time"

	"fleet/internal/core/domain/model/kernel"
)

// Kind discriminates the Delta variants.
type Kind string

const (
	KindRobotPositionChanged Kind = "RobotPositionChanged"
	KindRobotStatusChanged   Kind = "RobotStatusChanged"
	KindNodeOccupancyChanged Kind = "NodeOccupancyChanged"
	KindOrderStateChanged    Kind = "OrderStateChanged"
)

// RobotPositionChanged reports a robot's interpolated position and battery
// after a motion tick.
type RobotPositionChanged struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Battery   float64 `json:"battery"`
}

// RobotStatusChanged reports a robot status transition.
type RobotStatusChanged struct {
	Status      string  `json:"status"`
	Battery     float64 `json:"battery"`
	CurrentNode string  `json:"currentNode,omitempty"`
	TargetNode  string  `json:"targetNode,omitempty"`
}

// NodeOccupancyChanged reports the number of robots at a node.
type NodeOccupancyChanged struct {
	Occupants int `json:"occupants"`
}

// OrderStateChanged reports an order lifecycle transition.
type OrderStateChanged struct {
	Status       string `json:"status"`
	Robot        string `json:"robot,omitempty"`
	CancelReason string `json:"cancelReason,omitempty"`
}

// Delta is a single state-change notification. EntityID names the robot,
// node, or order the change concerns; Seq is the per-entity sequence number
// stamped by the publisher.
type Delta struct {
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entityId"`
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`

	RobotPosition *RobotPositionChanged `json:"robotPosition,omitempty"`
	RobotStatus   *RobotStatusChanged   `json:"robotStatus,omitempty"`
	NodeOccupancy *NodeOccupancyChanged `json:"nodeOccupancy,omitempty"`
	OrderState    *OrderStateChanged    `json:"orderState,omitempty"`
}

// NewRobotPositionChanged builds a position delta for the given robot.
func NewRobotPositionChanged(robotID kernel.UUID, position kernel.GeoPoint, battery float64) Delta {
	return Delta{
		Kind:     KindRobotPositionChanged,
		EntityID: robotID.String(),
		At:       time.Now().UTC(),
		RobotPosition: &RobotPositionChanged{
			Latitude:  position.Latitude(),
			Longitude: position.Longitude(),
			Battery:   battery,
		},
	}
}

// NewRobotStatusChanged builds a status delta for the given robot.
func NewRobotStatusChanged(robotID kernel.UUID, status string, battery float64, currentNode, targetNode *kernel.UUID) Delta {
	payload := &RobotStatusChanged{
		Status:  status,
		Battery: battery,
	}
	if currentNode != nil {
		payload.CurrentNode = currentNode.String()
	}
	if targetNode != nil {
		payload.TargetNode = targetNode.String()
	}

	return Delta{
		Kind:        KindRobotStatusChanged,
		EntityID:    robotID.String(),
		At:          time.Now().UTC(),
		RobotStatus: payload,
	}
}

// NewNodeOccupancyChanged builds an occupancy delta for the given node.
func NewNodeOccupancyChanged(nodeID kernel.UUID, occupants int) Delta {
	return Delta{
		Kind:          KindNodeOccupancyChanged,
		EntityID:      nodeID.String(),
		At:            time.Now().UTC(),
		NodeOccupancy: &NodeOccupancyChanged{Occupants: occupants},
	}
}

// NewOrderStateChanged builds a lifecycle delta for the given order.
func NewOrderStateChanged(orderID kernel.UUID, status string, robotID *kernel.UUID, cancelReason string) Delta {
	payload := &OrderStateChanged{
		Status:       status,
		CancelReason: cancelReason,
	}
	if robotID != nil {
		payload.Robot = robotID.String()
	}

	return Delta{
		Kind:       KindOrderStateChanged,
		EntityID:   orderID.String(),
		At:         time.Now().UTC(),
		OrderState: payload,
	}
}

// WithSeq returns a copy of the delta carrying the given per-entity sequence
// number. Publishers stamp sequence numbers; producers leave Seq zero.
func (d Delta) WithSeq(seq uint64) Delta {
	d.Seq = seq
	return d
}
