// Package redisstream forwards the fleet delta stream to Redis.
//
// The relay subscribes to the in-process broker and appends every delta,
// JSON encoded, to a Redis stream per delta kind. External consumers read
// the streams with XREAD and restore per-entity order from the sequence
// numbers stamped by the broker. Redis streams are append-only, so the
// at-least-once contract of the broker carries through unchanged.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"fleet/internal/core/domain/events"
	"fleet/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// streamPrefix namespaces the per-kind delta streams.
const streamPrefix = "fleet:deltas:"

// StreamName returns the Redis stream key for one delta kind.
func StreamName(kind events.Kind) string {
	return streamPrefix + string(kind)
}

// Relay pumps deltas from a subscriber into Redis streams.
type Relay struct {
	client     redis.UniversalClient
	subscriber ports.EventSubscriber
	maxLen     int64
}

// NewRelay creates a relay writing to the given Redis client. maxLen caps
// each stream with approximate trimming; zero means unbounded.
func NewRelay(client redis.UniversalClient, subscriber ports.EventSubscriber, maxLen int64) *Relay {
	return &Relay{
		client:     client,
		subscriber: subscriber,
		maxLen:     maxLen,
	}
}

// Run subscribes and forwards deltas until ctx is cancelled or the
// subscription channel closes. Returns the first Redis write error; the
// caller decides whether to restart, and a restarted relay re-seeds from
// the current fleet snapshot, so no state is lost across the gap.
func (r *Relay) Run(ctx context.Context) error {
	deltas, cancel, err := r.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to delta stream: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delta, ok := <-deltas:
			if !ok {
				return nil
			}
			if err := r.append(ctx, delta); err != nil {
				return err
			}
		}
	}
}

func (r *Relay) append(ctx context.Context, delta events.Delta) error {
	payload, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("encode delta for %s: %w", delta.EntityID, err)
	}

	args := &redis.XAddArgs{
		Stream: StreamName(delta.Kind),
		Values: map[string]any{
			"entity":  delta.EntityID,
			"seq":     strconv.FormatUint(delta.Seq, 10),
			"payload": payload,
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("append delta for %s: %w", delta.EntityID, err)
	}
	return nil
}
