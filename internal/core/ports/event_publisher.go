package ports

import (
	"context"

	"fleet/internal/core/domain/events"
)

// EventPublisher serializes state deltas into an ordered stream for
// external observers.
//
// Guarantees per-entity ordering: two deltas concerning the same robot or
// order reach every subscriber in the order they were published, enforced
// by a monotonically increasing per-entity sequence number. No global
// ordering across unrelated entities. Delivery is at-least-once;
// subscribers de-duplicate by sequence number.
type EventPublisher interface {
	// Publish stamps the delta with its per-entity sequence number and
	// delivers it to all current subscribers.
	Publish(ctx context.Context, delta events.Delta) error
}

// EventSubscriber hands out delta streams to observers.
type EventSubscriber interface {
	// Subscribe returns a channel of deltas and a cancel function. A
	// subscriber connecting mid-stream first receives synthetic deltas
	// reconstructing the current fleet state, then incremental deltas, so
	// there is no missed-update gap.
	Subscribe(ctx context.Context) (<-chan events.Delta, func(), error)
}
