package broker_test

import (
	"context"
	"testing"
	"time"

	"fleet/internal/adapters/out/broker"
	"fleet/internal/core/domain/events"
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/robot"
	"fleet/internal/core/fleet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGeoPoint(t *testing.T, latitude, longitude float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(latitude, longitude)
	require.NoError(t, err)
	return point
}

func collectDeltas(t *testing.T, ch <-chan events.Delta, n int) []events.Delta {
	t.Helper()
	deltas := make([]events.Delta, 0, n)
	timeout := time.After(2 * time.Second)
	for len(deltas) < n {
		select {
		case delta := <-ch:
			deltas = append(deltas, delta)
		case <-timeout:
			t.Fatalf("received %d of %d expected deltas", len(deltas), n)
		}
	}
	return deltas
}

func TestBroker_StampsMonotonicPerEntitySequence(t *testing.T) {
	b := broker.NewBroker(fleet.NewStore())
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	robotID := kernel.NewUUID()
	orderID := kernel.NewUUID()
	position := mustGeoPoint(t, 55.75, 37.61)

	require.NoError(t, b.Publish(ctx, events.NewRobotPositionChanged(robotID, position, 0.9)))
	require.NoError(t, b.Publish(ctx, events.NewOrderStateChanged(orderID, "Created", nil, "")))
	require.NoError(t, b.Publish(ctx, events.NewRobotStatusChanged(robotID, "Idle", 0.9, nil, nil)))

	deltas := collectDeltas(t, ch, 3)

	assert.Equal(t, robotID.String(), deltas[0].EntityID)
	assert.Equal(t, uint64(1), deltas[0].Seq)

	assert.Equal(t, orderID.String(), deltas[1].EntityID)
	assert.Equal(t, uint64(1), deltas[1].Seq)

	assert.Equal(t, robotID.String(), deltas[2].EntityID)
	assert.Equal(t, uint64(2), deltas[2].Seq)
}

func TestBroker_FansOutToAllSubscribers(t *testing.T) {
	b := broker.NewBroker(fleet.NewStore())
	ctx := context.Background()

	first, cancelFirst, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelFirst()

	second, cancelSecond, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelSecond()

	orderID := kernel.NewUUID()
	require.NoError(t, b.Publish(ctx, events.NewOrderStateChanged(orderID, "Created", nil, "")))

	for _, ch := range []<-chan events.Delta{first, second} {
		deltas := collectDeltas(t, ch, 1)
		assert.Equal(t, events.KindOrderStateChanged, deltas[0].Kind)
		assert.Equal(t, orderID.String(), deltas[0].EntityID)
	}
}

func TestBroker_SeedsLateSubscriberWithSnapshot(t *testing.T) {
	store := fleet.NewStore()
	b := broker.NewBroker(store)
	ctx := context.Background()

	depot, err := node.NewNode(kernel.NewUUID(), "Depot", mustGeoPoint(t, 55.75, 37.61), node.KindDepot)
	require.NoError(t, err)
	require.NoError(t, store.AddNode(depot))

	r, err := robot.NewRobot(kernel.NewUUID(), "Scout", "MK2", "ground")
	require.NoError(t, err)
	require.NoError(t, r.Activate(depot.ID(), depot.Location()))
	require.NoError(t, store.AddRobot(r))

	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	deltas := collectDeltas(t, ch, 3)

	kinds := make(map[events.Kind]events.Delta, len(deltas))
	for _, delta := range deltas {
		kinds[delta.Kind] = delta
	}

	status, ok := kinds[events.KindRobotStatusChanged]
	require.True(t, ok)
	assert.Equal(t, r.ID().String(), status.EntityID)
	assert.Equal(t, "Idle", status.RobotStatus.Status)
	assert.Equal(t, depot.ID().String(), status.RobotStatus.CurrentNode)

	position, ok := kinds[events.KindRobotPositionChanged]
	require.True(t, ok)
	assert.InDelta(t, 55.75, position.RobotPosition.Latitude, 1e-9)

	occupancy, ok := kinds[events.KindNodeOccupancyChanged]
	require.True(t, ok)
	assert.Equal(t, depot.ID().String(), occupancy.EntityID)
	assert.Equal(t, 1, occupancy.NodeOccupancy.Occupants)
}

func TestBroker_SnapshotSeqDoesNotRegressLiveStream(t *testing.T) {
	store := fleet.NewStore()
	b := broker.NewBroker(store)
	ctx := context.Background()

	depot, err := node.NewNode(kernel.NewUUID(), "Depot", mustGeoPoint(t, 55.75, 37.61), node.KindDepot)
	require.NoError(t, err)
	require.NoError(t, store.AddNode(depot))

	require.NoError(t, b.Publish(ctx, events.NewNodeOccupancyChanged(depot.ID(), 0)))
	require.NoError(t, b.Publish(ctx, events.NewNodeOccupancyChanged(depot.ID(), 1)))

	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	seed := collectDeltas(t, ch, 1)
	assert.Equal(t, uint64(2), seed[0].Seq)

	require.NoError(t, b.Publish(ctx, events.NewNodeOccupancyChanged(depot.ID(), 2)))

	live := collectDeltas(t, ch, 1)
	assert.Equal(t, uint64(3), live[0].Seq)
}

func TestBroker_CancelStopsDelivery(t *testing.T) {
	b := broker.NewBroker(fleet.NewStore())
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	require.NoError(t, b.Publish(ctx, events.NewOrderStateChanged(kernel.NewUUID(), "Created", nil, "")))

	_, open := <-ch
	assert.False(t, open)
}

func TestBroker_ContextCancellationEndsSubscription(t *testing.T) {
	b := broker.NewBroker(fleet.NewStore())

	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, cancel, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	cancelCtx()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-timeout:
			t.Fatal("subscription channel never closed after context cancellation")
		}
	}
}
