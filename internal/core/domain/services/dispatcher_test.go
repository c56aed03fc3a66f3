package services_test

import (
	"testing"
	"time"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testReserve   = 0.2
	testCostPerKm = 0.001
)

func newDispatcher(t *testing.T) services.Dispatcher {
	t.Helper()
	d, err := services.NewDispatcher(services.NewRouter(), testReserve, testCostPerKm)
	require.NoError(t, err)
	return d
}

func newOrderBetween(t *testing.T, pickup, dropoff *node.Node, robotType string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pickup.ID(), dropoff.ID(), robotType, time.Now(), "pay-1")
	require.NoError(t, err)
	return o
}

func idleRobotAt(t *testing.T, name string, n *node.Node) robot.Robot {
	t.Helper()
	r, err := robot.NewRobot(kernel.NewUUID(), name, "MK2", "ground")
	require.NoError(t, err)
	require.NoError(t, r.Activate(n.ID(), n.Location()))
	return *r
}

// restoredRobotAt builds an idle robot with a partially drained battery.
func restoredRobotAt(t *testing.T, name string, n *node.Node, battery float64) robot.Robot {
	t.Helper()
	nodeID := n.ID()
	pos := n.Location()
	r, err := robot.RestoreRobot(
		kernel.NewUUID(), name, "MK2", "ground",
		robot.StatusIdle, battery, &nodeID, nil, &pos, 0)
	require.NoError(t, err)
	return *r
}

func TestNewDispatcher(t *testing.T) {
	t.Run("rejects_bad_parameters", func(t *testing.T) {
		_, err := services.NewDispatcher(services.NewRouter(), -0.1, testCostPerKm)
		require.Error(t, err)

		_, err = services.NewDispatcher(services.NewRouter(), 1.0, testCostPerKm)
		require.Error(t, err)

		_, err = services.NewDispatcher(services.NewRouter(), testReserve, 0)
		require.Error(t, err)
	})
}

func TestDispatcher_Match(t *testing.T) {
	pickup := mustNode(t, "pickup", 52.52, 13.405, node.KindPickup)
	dropoff := mustNode(t, "dropoff", 52.53, 13.42, node.KindDropoff)
	depotNear := mustNode(t, "depot-near", 52.521, 13.406, node.KindDepot)
	depotFar := mustNode(t, "depot-far", 52.6, 13.5, node.KindDepot)
	nodes := []*node.Node{pickup, dropoff, depotNear, depotFar}

	t.Run("picks_robot_with_lowest_projected_distance", func(t *testing.T) {
		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "")
		near := idleRobotAt(t, "near", depotNear)
		far := idleRobotAt(t, "far", depotFar)

		got, err := d.Match(ord, []robot.Robot{far, near}, nodes)

		require.NoError(t, err)
		assert.True(t, got.Robot.ID().IsEqual(near.ID()))
		assert.True(t, got.PickupRoute.Destination().IsEqual(pickup.ID()))
		assert.False(t, got.ViaCharger)
	})

	t.Run("breaks_distance_tie_by_lowest_robot_id", func(t *testing.T) {
		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "")
		first := idleRobotAt(t, "a", depotNear)
		second := idleRobotAt(t, "b", depotNear)

		want := first
		if second.ID().Less(first.ID()) {
			want = second
		}

		got, err := d.Match(ord, []robot.Robot{first, second}, nodes)

		require.NoError(t, err)
		assert.True(t, got.Robot.ID().IsEqual(want.ID()))
	})

	t.Run("skips_non_idle_robots", func(t *testing.T) {
		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "")
		offline, err := robot.NewRobot(kernel.NewUUID(), "off", "MK2", "ground")
		require.NoError(t, err)

		_, got := d.Match(ord, []robot.Robot{*offline}, nodes)

		require.ErrorIs(t, got, services.ErrNoEligibleRobot)
	})

	t.Run("skips_robots_below_reserve", func(t *testing.T) {
		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "")
		drained := restoredRobotAt(t, "drained", depotNear, 0.05)

		_, err := d.Match(ord, []robot.Robot{drained}, nodes)

		require.ErrorIs(t, err, services.ErrNoEligibleRobot)
	})

	t.Run("honors_required_robot_type", func(t *testing.T) {
		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "aerial")
		ground := idleRobotAt(t, "ground", depotNear)

		_, err := d.Match(ord, []robot.Robot{ground}, nodes)

		require.ErrorIs(t, err, services.ErrNoEligibleRobot)
	})

	t.Run("robot_at_pickup_routes_straight_to_dropoff", func(t *testing.T) {
		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "")
		atPickup := idleRobotAt(t, "here", pickup)

		got, err := d.Match(ord, []robot.Robot{atPickup}, nodes)

		require.NoError(t, err)
		assert.True(t, got.PickupRoute.Origin().IsEqual(pickup.ID()))
		assert.True(t, got.PickupRoute.Destination().IsEqual(dropoff.ID()))
	})

	t.Run("unroutable_best_candidate_falls_to_next", func(t *testing.T) {
		// The nearer robot has too little charge to reach the pickup node
		// and there is no charger, so the farther, full robot wins.
		remote := mustNode(t, "remote", 53.5, 14.5, node.KindDepot)
		all := append([]*node.Node{remote}, nodes...)

		d := newDispatcher(t)
		ord := newOrderBetween(t, pickup, dropoff, "")
		weak := restoredRobotAt(t, "weak", remote, 0.25)
		strong := idleRobotAt(t, "strong", depotFar)

		got, err := d.Match(ord, []robot.Robot{weak, strong}, all)

		require.NoError(t, err)
		assert.True(t, got.Robot.ID().IsEqual(strong.ID()))
	})
}

func TestDispatcher_ChargerRoute(t *testing.T) {
	depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
	charger := mustNode(t, "charger", 52.53, 13.41, node.KindCharging)
	nodes := []*node.Node{depot, charger}

	t.Run("routes_to_nearest_reachable_charger", func(t *testing.T) {
		d := newDispatcher(t)
		r := idleRobotAt(t, "r", depot)

		rt, err := d.ChargerRoute(r, nodes)

		require.NoError(t, err)
		assert.True(t, rt.Destination().IsEqual(charger.ID()))
	})

	t.Run("fails_when_no_charger_in_range", func(t *testing.T) {
		d := newDispatcher(t)
		r := restoredRobotAt(t, "r", depot, 0.0001)

		_, err := d.ChargerRoute(r, nodes)

		require.ErrorIs(t, err, services.ErrInsufficientRange)
	})
}
