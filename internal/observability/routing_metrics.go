package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Route outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeNoRoute = "no_route"
	OutcomeError   = "error"
)

// RoutingCollector exposes route and battery metrics for a mesh session. It
// satisfies state.MetricsRecorder.
type RoutingCollector struct {
	gatherer prometheus.Gatherer

	RouteRequests   *prometheus.CounterVec
	RouteDuration   *prometheus.HistogramVec
	RouteHops       *prometheus.HistogramVec
	RouteEnergyCost *prometheus.HistogramVec
	BatteryDrain    prometheus.Counter
	NodeFailures    prometheus.Counter

	NodesAlive prometheus.Gauge
	NodesDead  prometheus.Gauge
	Edges      prometheus.Gauge
}

// NewRoutingCollector registers routing metrics against reg, defaulting to
// the global registry when nil.
func NewRoutingCollector(reg prometheus.Registerer) (*RoutingCollector, error) {
	reg, gatherer := resolveRegistry(reg)
	c := &RoutingCollector{gatherer: gatherer}
	var err error

	if c.RouteRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mesh_route_requests_total",
		Help: "Route computations by objective and outcome.",
	}, []string{"objective", "outcome"}), "mesh_route_requests_total"); err != nil {
		return nil, err
	}
	if c.RouteDuration, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mesh_route_computation_duration_seconds",
		Help:    "Time spent computing a shortest path.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"objective"}), "mesh_route_computation_duration_seconds"); err != nil {
		return nil, err
	}
	if c.RouteHops, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mesh_route_hops",
		Help:    "Edges traversed by successful routes.",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
	}, []string{"objective"}), "mesh_route_hops"); err != nil {
		return nil, err
	}
	if c.RouteEnergyCost, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mesh_route_energy_cost",
		Help:    "Summed edge energy cost of successful routes.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"objective"}), "mesh_route_energy_cost"); err != nil {
		return nil, err
	}
	if c.BatteryDrain, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mesh_battery_drain_total",
		Help: "Battery units requested from nodes by routed packets.",
	}), "mesh_battery_drain_total"); err != nil {
		return nil, err
	}
	if c.NodeFailures, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mesh_node_failures_total",
		Help: "Injected node failures that killed an alive node.",
	}), "mesh_node_failures_total"); err != nil {
		return nil, err
	}
	if c.NodesAlive, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mesh_nodes_alive",
		Help: "Nodes with energy above zero.",
	}), "mesh_nodes_alive"); err != nil {
		return nil, err
	}
	if c.NodesDead, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mesh_nodes_dead",
		Help: "Nodes with zero energy.",
	}), "mesh_nodes_dead"); err != nil {
		return nil, err
	}
	if c.Edges, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mesh_edges",
		Help: "Edges in the mesh, alive or not.",
	}), "mesh_edges"); err != nil {
		return nil, err
	}
	return c, nil
}

// Gatherer returns the gatherer the collector registered against.
func (c *RoutingCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveRoute records one route computation. hops and energyCost are only
// observed for OutcomeOK.
func (c *RoutingCollector) ObserveRoute(objective, outcome string, took time.Duration, hops int, energyCost float64) {
	if c == nil {
		return
	}
	c.RouteRequests.WithLabelValues(objective, outcome).Inc()
	c.RouteDuration.WithLabelValues(objective).Observe(took.Seconds())
	if outcome == OutcomeOK {
		c.RouteHops.WithLabelValues(objective).Observe(float64(hops))
		c.RouteEnergyCost.WithLabelValues(objective).Observe(energyCost)
	}
}

// AddBatteryDrain adds the total drain applied by one routed packet.
func (c *RoutingCollector) AddBatteryDrain(units int) {
	if c == nil || units <= 0 {
		return
	}
	c.BatteryDrain.Add(float64(units))
}

func (c *RoutingCollector) IncNodeFailures() {
	if c == nil {
		return
	}
	c.NodeFailures.Inc()
}

// SetMeshCounts updates the node and edge gauges.
func (c *RoutingCollector) SetMeshCounts(alive, dead, edges int) {
	if c == nil {
		return
	}
	c.NodesAlive.Set(float64(alive))
	c.NodesDead.Set(float64(dead))
	c.Edges.Set(float64(edges))
}
