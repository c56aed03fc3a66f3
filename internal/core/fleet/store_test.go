package fleet_test

import (
	"errors"
	"sync"
	"testing"

	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/domain/model/route"
	"fleet/internal/core/fleet"
	"fleet/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func mustRobot(t *testing.T, name string) *robot.Robot {
	t.Helper()
	r, err := robot.NewRobot(kernel.NewUUID(), name, "MK2", "ground")
	require.NoError(t, err)
	return r
}

func activeRobotAt(t *testing.T, n *node.Node) *robot.Robot {
	t.Helper()
	r := mustRobot(t, "R-1")
	require.NoError(t, r.Activate(n.ID(), n.Location()))
	return r
}

func legBetween(t *testing.T, from, to *node.Node) route.Leg {
	t.Helper()
	d, err := from.DistanceTo(to)
	require.NoError(t, err)
	return route.Leg{
		FromID: from.ID(), ToID: to.ID(),
		From: from.Location(), To: to.Location(),
		DistanceKm: d,
	}
}

func TestStore_Nodes(t *testing.T) {
	t.Run("add_and_get", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)

		require.NoError(t, store.AddNode(depot))

		got, err := store.Node(depot.ID())
		require.NoError(t, err)
		assert.True(t, got.IsEqual(depot))
	})

	t.Run("duplicate_is_rejected", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)

		require.NoError(t, store.AddNode(depot))
		require.ErrorIs(t, store.AddNode(depot), fleet.ErrNodeExists)
	})

	t.Run("unknown_node_is_not_found", func(t *testing.T) {
		store := fleet.NewStore()

		_, err := store.Node(kernel.NewUUID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("list_is_ordered_by_id", func(t *testing.T) {
		store := fleet.NewStore()
		for i := 0; i < 5; i++ {
			require.NoError(t, store.AddNode(mustNode(t, "n", 52.5, 13.4, node.KindPickup)))
		}

		nodes := store.ListNodes()
		require.Len(t, nodes, 5)
		for i := 1; i < len(nodes); i++ {
			assert.True(t, nodes[i-1].ID().Less(nodes[i].ID()))
		}
	})

	t.Run("charging_nodes_are_filtered", func(t *testing.T) {
		store := fleet.NewStore()
		charger := mustNode(t, "charger", 52.5, 13.4, node.KindCharging)
		require.NoError(t, store.AddNode(charger))
		require.NoError(t, store.AddNode(mustNode(t, "pickup", 52.6, 13.5, node.KindPickup)))

		chargers := store.ListChargingNodes()
		require.Len(t, chargers, 1)
		assert.True(t, chargers[0].ID().IsEqual(charger.ID()))
	})
}

func TestStore_RemoveNode(t *testing.T) {
	t.Run("free_node_is_removed", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		require.NoError(t, store.AddNode(depot))

		require.NoError(t, store.RemoveNode(depot.ID()))

		_, err := store.Node(depot.ID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("occupied_node_is_protected", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		require.NoError(t, store.AddNode(depot))
		require.NoError(t, store.AddRobot(activeRobotAt(t, depot)))

		require.ErrorIs(t, store.RemoveNode(depot.ID()), fleet.ErrNodeInUse)
	})

	t.Run("targeted_node_is_protected", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		pickup := mustNode(t, "pickup", 52.6, 13.5, node.KindPickup)
		require.NoError(t, store.AddNode(depot))
		require.NoError(t, store.AddNode(pickup))

		r := activeRobotAt(t, depot)
		rt, err := route.NewRoute([]route.Leg{legBetween(t, depot, pickup)})
		require.NoError(t, err)
		require.NoError(t, r.BeginRoute(rt, robot.StatusEnRouteToPickup))
		require.NoError(t, store.AddRobot(r))

		require.ErrorIs(t, store.RemoveNode(pickup.ID()), fleet.ErrNodeInUse)
	})
}

func TestStore_Robots(t *testing.T) {
	t.Run("add_and_get_snapshot", func(t *testing.T) {
		store := fleet.NewStore()
		r := mustRobot(t, "R-1")

		require.NoError(t, store.AddRobot(r))

		got, err := store.Robot(r.ID())
		require.NoError(t, err)
		assert.True(t, got.ID().IsEqual(r.ID()))
		assert.Equal(t, robot.StatusOffline, got.Status())
	})

	t.Run("duplicate_is_rejected", func(t *testing.T) {
		store := fleet.NewStore()
		r := mustRobot(t, "R-1")

		require.NoError(t, store.AddRobot(r))
		require.ErrorIs(t, store.AddRobot(r), fleet.ErrRobotExists)
	})

	t.Run("snapshot_is_stable_across_transitions", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		require.NoError(t, store.AddNode(depot))
		r := mustRobot(t, "R-1")
		require.NoError(t, store.AddRobot(r))

		before, err := store.Robot(r.ID())
		require.NoError(t, err)

		_, _, err = store.TryTransition(r.ID(), robot.StatusOffline, func(rb *robot.Robot) error {
			return rb.Activate(depot.ID(), depot.Location())
		})
		require.NoError(t, err)

		assert.Equal(t, robot.StatusOffline, before.Status())

		after, err := store.Robot(r.ID())
		require.NoError(t, err)
		assert.Equal(t, robot.StatusIdle, after.Status())
	})

	t.Run("idle_robots_are_filtered_and_ordered", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		require.NoError(t, store.AddNode(depot))

		for i := 0; i < 3; i++ {
			r := mustRobot(t, "R")
			require.NoError(t, r.Activate(depot.ID(), depot.Location()))
			require.NoError(t, store.AddRobot(r))
		}
		require.NoError(t, store.AddRobot(mustRobot(t, "offline")))

		idle := store.ListIdleRobots()
		require.Len(t, idle, 3)
		for i := 1; i < len(idle); i++ {
			assert.True(t, idle[i-1].ID().Less(idle[i].ID()))
		}
	})
}

func TestStore_RemoveRobot(t *testing.T) {
	t.Run("idle_robot_is_removed", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		require.NoError(t, store.AddNode(depot))
		r := activeRobotAt(t, depot)
		require.NoError(t, store.AddRobot(r))

		removed, err := store.RemoveRobot(r.ID())
		require.NoError(t, err)
		assert.True(t, removed.ID().IsEqual(r.ID()))
		assert.Zero(t, store.Occupants(depot.ID()))

		_, err = store.Robot(r.ID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("working_robot_is_protected", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		pickup := mustNode(t, "pickup", 52.6, 13.5, node.KindPickup)

		r := activeRobotAt(t, depot)
		rt, err := route.NewRoute([]route.Leg{legBetween(t, depot, pickup)})
		require.NoError(t, err)
		require.NoError(t, r.BeginRoute(rt, robot.StatusEnRouteToPickup))
		require.NoError(t, store.AddRobot(r))

		_, err = store.RemoveRobot(r.ID())
		require.ErrorIs(t, err, fleet.ErrRobotBusy)
	})
}

func TestStore_TryTransition(t *testing.T) {
	depotPos := mustGeoPoint(t, 52.52, 13.405)

	t.Run("stale_expectation_changes_nothing", func(t *testing.T) {
		store := fleet.NewStore()
		r := mustRobot(t, "R-1")
		require.NoError(t, store.AddRobot(r))

		_, _, err := store.TryTransition(r.ID(), robot.StatusIdle, func(rb *robot.Robot) error {
			t.Fatal("apply must not run on stale expectation")
			return nil
		})
		require.ErrorIs(t, err, errs.ErrStaleState)

		got, err := store.Robot(r.ID())
		require.NoError(t, err)
		assert.Equal(t, robot.StatusOffline, got.Status())
	})

	t.Run("failed_apply_changes_nothing", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		require.NoError(t, store.AddNode(depot))
		r := activeRobotAt(t, depot)
		require.NoError(t, store.AddRobot(r))

		_, _, err := store.TryTransition(r.ID(), robot.StatusIdle, func(rb *robot.Robot) error {
			if err := rb.StartCharging(); err != nil {
				return err
			}
			return rb.Activate(depot.ID(), depotPos)
		})
		require.Error(t, err)

		got, err := store.Robot(r.ID())
		require.NoError(t, err)
		assert.Equal(t, robot.StatusIdle, got.Status())
	})

	t.Run("unknown_robot_is_not_found", func(t *testing.T) {
		store := fleet.NewStore()

		_, _, err := store.TryTransition(kernel.NewUUID(), robot.StatusIdle,
			func(*robot.Robot) error { return nil })
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("only_one_of_concurrent_claims_wins", func(t *testing.T) {
		store := fleet.NewStore()
		depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
		pickup := mustNode(t, "pickup", 52.6, 13.5, node.KindPickup)
		require.NoError(t, store.AddNode(depot))
		require.NoError(t, store.AddNode(pickup))
		r := activeRobotAt(t, depot)
		require.NoError(t, store.AddRobot(r))

		rt, err := route.NewRoute([]route.Leg{legBetween(t, depot, pickup)})
		require.NoError(t, err)

		const claimers = 16
		var wins, stale int
		var mu sync.Mutex
		var wg sync.WaitGroup
		wg.Add(claimers)
		for i := 0; i < claimers; i++ {
			go func() {
				defer wg.Done()
				_, _, err := store.TryTransition(r.ID(), robot.StatusIdle, func(rb *robot.Robot) error {
					return rb.BeginRoute(rt, robot.StatusEnRouteToPickup)
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					wins++
				} else if errors.Is(err, errs.ErrStaleState) {
					stale++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, claimers-1, stale)
	})
}

func TestStore_Occupancy(t *testing.T) {
	store := fleet.NewStore()
	depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
	pickup := mustNode(t, "pickup", 52.53, 13.41, node.KindPickup)
	require.NoError(t, store.AddNode(depot))
	require.NoError(t, store.AddNode(pickup))

	r := activeRobotAt(t, depot)
	require.NoError(t, store.AddRobot(r))
	assert.Equal(t, 1, store.Occupants(depot.ID()))

	rt, err := route.NewRoute([]route.Leg{legBetween(t, depot, pickup)})
	require.NoError(t, err)

	_, changes, err := store.TryTransition(r.ID(), robot.StatusIdle, func(rb *robot.Robot) error {
		return rb.BeginRoute(rt, robot.StatusEnRouteToPickup)
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].NodeID.IsEqual(depot.ID()))
	assert.Zero(t, changes[0].Occupants)
	assert.Zero(t, store.Occupants(depot.ID()))

	// Travel the whole leg in one step to arrive at the pickup node.
	_, changes, err = store.TryTransition(r.ID(), robot.StatusEnRouteToPickup, func(rb *robot.Robot) error {
		_, err := rb.Advance(rt.TotalDistanceKm()+1, 0.001)
		return err
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].NodeID.IsEqual(pickup.ID()))
	assert.Equal(t, 1, changes[0].Occupants)
	assert.Equal(t, 1, store.Occupants(pickup.ID()))
}

func TestStore_SnapshotState(t *testing.T) {
	store := fleet.NewStore()
	depot := mustNode(t, "depot", 52.52, 13.405, node.KindDepot)
	require.NoError(t, store.AddNode(depot))
	require.NoError(t, store.AddRobot(activeRobotAt(t, depot)))
	require.NoError(t, store.AddRobot(mustRobot(t, "spare")))

	snap := store.SnapshotState()

	assert.Len(t, snap.Robots, 2)
	assert.Len(t, snap.Nodes, 1)
	assert.Equal(t, 1, snap.Occupancy[depot.ID().String()])
}

func TestStore_LockOrder(t *testing.T) {
	store := fleet.NewStore()
	orderID := kernel.NewUUID()

	var counter int
	var wg sync.WaitGroup
	const workers = 32
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := store.LockOrder(orderID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}
