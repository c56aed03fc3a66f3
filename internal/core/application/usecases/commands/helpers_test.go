package commands_test

import (
	"testing"
	"time"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/domain/model/route"
	"fleet/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

const (
	testReserveBattery = 0.2
	testCostPerKm      = 0.001
)

func mustGeoPoint(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return p
}

func mustNode(t *testing.T, name string, lat, lon float64, kind node.Kind) *node.Node {
	t.Helper()
	n, err := node.NewNode(kernel.NewUUID(), name, mustGeoPoint(t, lat, lon), kind)
	require.NoError(t, err)
	return n
}

// idleRobotAt creates a robot activated at the given node with a full battery.
func idleRobotAt(t *testing.T, name string, n *node.Node) *robot.Robot {
	t.Helper()
	r, err := robot.NewRobot(kernel.NewUUID(), name, "MK2", "ground")
	require.NoError(t, err)
	require.NoError(t, r.Activate(n.ID(), n.Location()))
	return r
}

// restoredRobotAt creates an idle robot standing at the given node with a
// partially drained battery.
func restoredRobotAt(t *testing.T, name string, n *node.Node, battery float64) *robot.Robot {
	t.Helper()
	nodeID := n.ID()
	pos := n.Location()
	r, err := robot.RestoreRobot(
		kernel.NewUUID(), name, "MK2", "ground",
		robot.StatusIdle, battery,
		&nodeID, nil, &pos, 0,
	)
	require.NoError(t, err)
	return r
}

func routeBetween(t *testing.T, from, to *node.Node) route.Route {
	t.Helper()
	d, err := from.DistanceTo(to)
	require.NoError(t, err)
	rt, err := route.NewRoute([]route.Leg{{
		FromID: from.ID(), ToID: to.ID(),
		From: from.Location(), To: to.Location(),
		DistanceKm: d,
	}})
	require.NoError(t, err)
	return rt
}

func newOrderBetween(t *testing.T, pickup, dropoff *node.Node, createdAt time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pickup.ID(), dropoff.ID(),
		"", createdAt, "pay-ref",
	)
	require.NoError(t, err)
	return o
}

func newDispatcherService(t *testing.T) services.Dispatcher {
	t.Helper()
	d, err := services.NewDispatcher(services.NewRouter(), testReserveBattery, testCostPerKm)
	require.NoError(t, err)
	return d
}
