package traffic

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/routing"
)

func newSession(t *testing.T, energies []int, edges []core.EdgeSpec) *state.Session {
	t.Helper()
	topo, err := core.NewTopology(energies, edges, core.WithSeed(1))
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	s, err := state.NewSession(topo, energy.NewFirstOrderRadio(), 1, logging.Noop())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func triangle() []core.EdgeSpec {
	return []core.EdgeSpec{
		{A: 0, B: 2, Distance: 10},
		{A: 0, B: 1, Distance: 5.5},
		{A: 1, B: 2, Distance: 5.5},
	}
}

func TestRunDeliversOnHealthyMesh(t *testing.T) {
	s := newSession(t, []int{100, 100, 100}, triangle())
	sim, err := New(s, nil, WithRand(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rep, err := sim.Run(context.Background(), 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Ticks != 5 || rep.Delivered != 5 || rep.NoRoute != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Reason != StopClockEnded || rep.FirstDeathTick != 0 || rep.AliveAtEnd != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.TotalEnergyCost <= 0 || rep.TotalHops < 5 {
		t.Fatalf("totals = %v energy, %d hops", rep.TotalEnergyCost, rep.TotalHops)
	}
	if rep.Objective != "energy" || rep.DeliveryRatio() != 1 {
		t.Fatalf("objective %q ratio %v", rep.Objective, rep.DeliveryRatio())
	}
	if got := s.Status().Step; got != 5 {
		t.Fatalf("session step = %d, want 5", got)
	}
}

func TestRunStopsOnFirstDeath(t *testing.T) {
	s := newSession(t, []int{2, 2, 2}, triangle())
	sim, err := New(s, logging.Noop(),
		WithStopOnFirstDeath(true),
		WithObjective(routing.ObjectiveDistance),
		WithRand(rand.New(rand.NewSource(3))),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rep, err := sim.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Ticks != 1 || rep.FirstDeathTick != 1 || rep.Reason != StopFirstDeath {
		t.Fatalf("report = %+v", rep)
	}
	if rep.FirstDeathSeconds != 1 || rep.SimulatedSeconds != 1 {
		t.Fatalf("simulated time = %v/%v, want 1s/1s", rep.FirstDeathSeconds, rep.SimulatedSeconds)
	}
	if rep.Delivered != 1 {
		t.Fatalf("delivered = %d, want 1", rep.Delivered)
	}
}

func TestRunWithFailureInjectionDepletesMesh(t *testing.T) {
	s := newSession(t, []int{100, 100, 100}, triangle())
	sim, err := New(s, nil, WithFailureEvery(1), WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rep, err := sim.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Failures != 2 || rep.Delivered != 2 || rep.Ticks != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Reason != StopMeshDepleted || rep.AliveAtEnd != 1 || rep.FirstDeathTick != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunCountsUnroutableFlows(t *testing.T) {
	s := newSession(t, []int{100, 100}, nil)
	sim, err := New(s, nil, WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rep, err := sim.Run(context.Background(), 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.NoRoute != 4 || rep.Delivered != 0 || rep.DeliveryRatio() != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunCanceled(t *testing.T) {
	s := newSession(t, []int{100, 100, 100}, triangle())
	sim, err := New(s, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := sim.Run(ctx, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Ticks != 0 || rep.Reason != StopCanceled {
		t.Fatalf("report = %+v", rep)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	s := newSession(t, []int{100, 100}, nil)
	if _, err := New(s, nil, WithFailureEvery(-1)); err == nil {
		t.Fatalf("expected error for negative failure interval")
	}
	if _, err := New(s, nil, WithTickInterval(-1)); err == nil {
		t.Fatalf("expected error for negative tick interval")
	}
	if _, err := New(s, nil, WithObjective("latency")); !errors.Is(err, routing.ErrUnknownObjective) {
		t.Fatalf("unknown objective err = %v", err)
	}
	if _, err := New(nil, nil); !errors.Is(err, state.ErrNilTopology) {
		t.Fatalf("nil session err = %v", err)
	}
}

func TestRunReportsSimulatedTime(t *testing.T) {
	s := newSession(t, []int{100, 100, 100}, triangle())
	sim, err := New(s, logging.Noop(), WithRand(rand.New(rand.NewSource(5))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rep, err := sim.Run(context.Background(), 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Ticks != 7 || rep.SimulatedSeconds != 7 {
		t.Fatalf("ticks = %d, simulated = %vs, want 7 and 7s", rep.Ticks, rep.SimulatedSeconds)
	}
	if rep.FirstDeathTick != 0 || rep.FirstDeathSeconds != 0 {
		t.Fatalf("first death = %d at %vs, want none", rep.FirstDeathTick, rep.FirstDeathSeconds)
	}
}
