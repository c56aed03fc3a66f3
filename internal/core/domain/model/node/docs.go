// Package node contains the Node aggregate: a named geographic point in the
// delivery graph with a functional kind (depot, pickup, dropoff, charging).
package node
