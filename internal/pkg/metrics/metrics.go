// Package metrics exposes Prometheus instrumentation for the engine.
//
// Counters are derived from the delta stream: the instrumented publisher
// wraps the broker and counts each delta as it passes through, so handler
// code stays free of metrics plumbing. Fleet gauges are collected on
// scrape from the state store snapshot.
package metrics

import (
	"context"

	"fleet/internal/core/domain/events"
	"fleet/internal/core/fleet"
	"fleet/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's counter collectors.
type Metrics struct {
	deltasPublished *prometheus.CounterVec
	ordersMatched   prometheus.Counter
	ordersDelivered prometheus.Counter
	ordersCancelled prometheus.Counter
	robotFailures   prometheus.Counter
}

// NewMetrics creates and registers the engine counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deltasPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_deltas_published_total",
			Help: "State deltas published to observers, by delta kind.",
		}, []string{"kind"}),
		ordersMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_orders_matched_total",
			Help: "Orders matched to a robot by the dispatcher.",
		}),
		ordersDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_orders_delivered_total",
			Help: "Orders delivered to their dropoff node.",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_orders_cancelled_total",
			Help: "Orders cancelled, for any reason.",
		}),
		robotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_robot_failures_total",
			Help: "Robots taken offline by battery exhaustion.",
		}),
	}

	reg.MustRegister(
		m.deltasPublished,
		m.ordersMatched,
		m.ordersDelivered,
		m.ordersCancelled,
		m.robotFailures,
	)
	return m
}

// observe updates the counters a delta implies.
func (m *Metrics) observe(delta events.Delta) {
	m.deltasPublished.WithLabelValues(string(delta.Kind)).Inc()

	switch delta.Kind {
	case events.KindOrderStateChanged:
		switch delta.OrderState.Status {
		case "PickupEnRoute":
			m.ordersMatched.Inc()
		case "Delivered":
			m.ordersDelivered.Inc()
		case "Cancelled":
			m.ordersCancelled.Inc()
		}
	case events.KindRobotStatusChanged:
		if delta.RobotStatus.Status == "Offline" {
			m.robotFailures.Inc()
		}
	}
}

// InstrumentedPublisher counts deltas as they pass to the wrapped
// publisher. Counters are updated only for deltas the publisher accepted.
type InstrumentedPublisher struct {
	inner   ports.EventPublisher
	metrics *Metrics
}

// NewInstrumentedPublisher wraps a publisher with delta counting.
func NewInstrumentedPublisher(inner ports.EventPublisher, metrics *Metrics) *InstrumentedPublisher {
	return &InstrumentedPublisher{inner: inner, metrics: metrics}
}

// Publish delegates to the wrapped publisher and records the delta.
func (p *InstrumentedPublisher) Publish(ctx context.Context, delta events.Delta) error {
	if err := p.inner.Publish(ctx, delta); err != nil {
		return err
	}
	p.metrics.observe(delta)
	return nil
}

// FleetCollector reports fleet composition gauges from the state store.
// Values are read from a point-in-time snapshot on every scrape.
type FleetCollector struct {
	store *fleet.Store

	robots *prometheus.Desc
	nodes  *prometheus.Desc
}

// NewFleetCollector creates a collector over the given store.
func NewFleetCollector(store *fleet.Store) *FleetCollector {
	return &FleetCollector{
		store: store,
		robots: prometheus.NewDesc(
			"fleet_robots",
			"Robots in the fleet, by status.",
			[]string{"status"}, nil,
		),
		nodes: prometheus.NewDesc(
			"fleet_nodes",
			"Nodes in the graph, by kind.",
			[]string{"kind"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *FleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.robots
	ch <- c.nodes
}

// Collect implements prometheus.Collector.
func (c *FleetCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.SnapshotState()

	robotsByStatus := make(map[string]int)
	for i := range snap.Robots {
		robotsByStatus[snap.Robots[i].Status().String()]++
	}
	for status, count := range robotsByStatus {
		ch <- prometheus.MustNewConstMetric(c.robots, prometheus.GaugeValue, float64(count), status)
	}

	nodesByKind := make(map[string]int)
	for _, n := range snap.Nodes {
		nodesByKind[n.Kind().String()]++
	}
	for kind, count := range nodesByKind {
		ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(count), kind)
	}
}
