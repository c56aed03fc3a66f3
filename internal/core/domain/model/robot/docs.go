// Package robot contains the Robot aggregate: a mobile delivery agent with
// battery, position, status, and a committed route it advances along.
//
// The aggregate owns all robot state transitions; concurrent access and
// compare-and-set semantics are layered on top by the fleet state store.
package robot
