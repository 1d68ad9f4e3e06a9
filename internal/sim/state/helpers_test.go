package state

import (
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
)

type routeObservation struct {
	objective  string
	outcome    string
	hops       int
	energyCost float64
}

type meshCounts struct {
	alive, dead, edges int
}

// stubMetricsRecorder captures everything a Session reports.
type stubMetricsRecorder struct {
	mu       sync.Mutex
	routes   []routeObservation
	drain    int
	failures int
	counts   []meshCounts
}

func (r *stubMetricsRecorder) ObserveRoute(objective, outcome string, _ time.Duration, hops int, energyCost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, routeObservation{objective: objective, outcome: outcome, hops: hops, energyCost: energyCost})
}

func (r *stubMetricsRecorder) AddBatteryDrain(units int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drain += units
}

func (r *stubMetricsRecorder) IncNodeFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *stubMetricsRecorder) SetMeshCounts(alive, dead, edges int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, meshCounts{alive: alive, dead: dead, edges: edges})
}

func (r *stubMetricsRecorder) lastCounts() meshCounts {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return meshCounts{}
	}
	return r.counts[len(r.counts)-1]
}

// newTriangleSession builds A-C (10), A-B (5.5), B-C (5.5) with the
// deterministic model at packet size 1.
func newTriangleSession(t *testing.T, energies []int, opts ...SessionOption) *Session {
	t.Helper()
	topo, err := core.NewTopology(energies, []core.EdgeSpec{
		{A: 0, B: 2, Distance: 10},
		{A: 0, B: 1, Distance: 5.5},
		{A: 1, B: 2, Distance: 5.5},
	}, core.WithSeed(1))
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	s, err := NewSession(topo, energy.NewFirstOrderRadio(), 1, logging.Noop(), opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}
