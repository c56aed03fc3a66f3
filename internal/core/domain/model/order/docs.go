// Package order contains the Order aggregate and its lifecycle state
// machine, from creation through delivery or cancellation.
package order
