// Package fleet holds the authoritative in-memory state of the robot fleet
// and the node graph.
//
// The store is the serialization point for all robot mutations. Components
// read candidate snapshots, decide, and then commit through TryTransition,
// which revalidates the robot's status under the lock. Losing a race
// surfaces as errs.StaleStateError and is an expected outcome, not a fault.
package fleet
