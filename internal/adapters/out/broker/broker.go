// Package broker provides the in-process delta stream.
//
// The broker is the single stamping point for per-entity sequence numbers:
// every delta passes through Publish, which assigns the next sequence number
// for its entity before fan-out. Subscribers connecting mid-stream are
// seeded with synthetic deltas reconstructing the current fleet state, so
// an observer never has a missed-update gap between the snapshot it starts
// from and the incremental deltas that follow.
package broker

import (
	"context"
	"sync"

	"fleet/internal/core/domain/events"
	"fleet/internal/core/fleet"
)

// subscriberBuffer is the per-subscriber channel capacity. Publish blocks
// on a subscriber whose buffer is full rather than dropping deltas.
const subscriberBuffer = 256

// snapshotter supplies the point-in-time fleet view used to seed new
// subscribers.
type snapshotter interface {
	SnapshotState() fleet.Snapshot
}

type subscriber struct {
	ch   chan events.Delta
	done chan struct{}
}

// Broker is an in-process, ordered delta stream. It implements both
// ports.EventPublisher and ports.EventSubscriber.
//
// Ordering guarantee: deltas for the same entity carry strictly increasing
// sequence numbers and reach every subscriber in publish order. Deltas for
// unrelated entities have no ordering relationship. Delivery is
// at-least-once; a subscriber seeded mid-stream may see a synthetic delta
// repeating the entity's last published state.
type Broker struct {
	mu        sync.Mutex
	snapshots snapshotter
	seqs      map[string]uint64
	subs      map[int]*subscriber
	nextSubID int
}

// NewBroker creates a broker seeding new subscribers from the given store.
func NewBroker(snapshots snapshotter) *Broker {
	return &Broker{
		snapshots: snapshots,
		seqs:      make(map[string]uint64),
		subs:      make(map[int]*subscriber),
	}
}

// Publish stamps the delta with the next sequence number for its entity and
// delivers it to every current subscriber. Blocks on a full subscriber
// buffer until the subscriber drains, cancels, or ctx expires.
func (b *Broker) Publish(ctx context.Context, delta events.Delta) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seqs[delta.EntityID]++
	stamped := delta.WithSeq(b.seqs[delta.EntityID])

	for _, sub := range b.subs {
		select {
		case sub.ch <- stamped:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers an observer and returns its delta channel together
// with a cancel function. The channel first yields synthetic deltas
// reconstructing the current fleet state, then incremental deltas. The
// returned cancel function is idempotent; the subscription also ends when
// ctx is cancelled.
func (b *Broker) Subscribe(ctx context.Context) (<-chan events.Delta, func(), error) {
	b.mu.Lock()

	seed := b.snapshotDeltas()
	sub := &subscriber{
		ch:   make(chan events.Delta, len(seed)+subscriberBuffer),
		done: make(chan struct{}),
	}
	for _, delta := range seed {
		sub.ch <- delta
	}

	id := b.nextSubID
	b.nextSubID++
	b.subs[id] = sub

	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(sub.done)

			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()

			close(sub.ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.done:
		}
	}()

	return sub.ch, cancel, nil
}

// snapshotDeltas builds the synthetic deltas seeding a new subscriber.
// Each delta carries the entity's last published sequence number, so a
// de-duplicating subscriber treats the seed as a replay, not a regression.
// Caller holds b.mu.
func (b *Broker) snapshotDeltas() []events.Delta {
	snap := b.snapshots.SnapshotState()

	deltas := make([]events.Delta, 0, 2*len(snap.Robots)+len(snap.Nodes))
	for i := range snap.Robots {
		r := &snap.Robots[i]

		status := events.NewRobotStatusChanged(
			r.ID(), r.Status().String(), r.Battery(), r.CurrentNode(), r.TargetNode(),
		)
		deltas = append(deltas, status.WithSeq(b.seqs[status.EntityID]))

		if position, ok := r.Position(); ok {
			pos := events.NewRobotPositionChanged(r.ID(), position, r.Battery())
			deltas = append(deltas, pos.WithSeq(b.seqs[pos.EntityID]))
		}
	}
	for _, n := range snap.Nodes {
		occ := events.NewNodeOccupancyChanged(n.ID(), snap.Occupancy[n.ID().String()])
		deltas = append(deltas, occ.WithSeq(b.seqs[occ.EntityID]))
	}
	return deltas
}
