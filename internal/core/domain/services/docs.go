// Package services contains stateless domain services that coordinate
// multiple aggregates: routing over the node graph and matching orders to
// robots. Services compute decisions over snapshots; committing a decision
// is the caller's responsibility.
package services
