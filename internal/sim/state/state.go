// Package state owns the live mesh session shared by the gRPC service and the
// traffic simulator.
package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/observability"
	"github.com/signalsfoundry/mesh-energy-router/model"
	"github.com/signalsfoundry/mesh-energy-router/routing"
)

var (
	// ErrNoAliveNode is returned by FailRandomNode when every node is
	// already dead.
	ErrNoAliveNode = errors.New("no alive node available")
	// ErrNilTopology indicates a session was built without a topology.
	ErrNilTopology = errors.New("nil topology")
)

// MetricsRecorder receives route and mesh updates from a Session.
// observability.RoutingCollector implements it.
type MetricsRecorder interface {
	ObserveRoute(objective, outcome string, took time.Duration, hops int, energyCost float64)
	AddBatteryDrain(units int)
	IncNodeFailures()
	SetMeshCounts(alive, dead, edges int)
}

// SessionOption customises Session construction.
type SessionOption func(*Session)

// WithMetricsRecorder attaches a recorder for route and mesh metrics.
func WithMetricsRecorder(m MetricsRecorder) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithHistoryLimit caps the samples kept per node; older samples are dropped
// first. Zero keeps everything.
func WithHistoryLimit(n int) SessionOption {
	return func(s *Session) {
		s.history.limit = n
	}
}

// Session serialises every workflow over one topology: routing, the drain
// that follows, re-costing, and the energy history.
//
// Lock ordering is Session -> Topology. The topology has its own lock, so
// read accessors on it stay safe, but multi-step operations must go through
// the Session.
type Session struct {
	mu sync.RWMutex

	topo       *core.Topology
	model      energy.Model
	packetSize float64
	// step counts mutations: routed packets and failures.
	step    int
	history *energyHistory

	log     logging.Logger
	metrics MetricsRecorder
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Nodes      []core.Node
	Edges      []core.Edge
	Costs      core.CostContext
	PacketSize float64
	Step       int
}

// NewSession assigns edge costs for m and packetSize and records the initial
// battery levels as step 0.
func NewSession(topo *core.Topology, m energy.Model, packetSize float64, log logging.Logger, opts ...SessionOption) (*Session, error) {
	if topo == nil {
		return nil, ErrNilTopology
	}
	if m == nil {
		return nil, core.ErrNilModel
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &Session{
		topo:       topo,
		model:      m,
		packetSize: packetSize,
		history:    newEnergyHistory(),
		log:        log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := topo.AssignEnergyCosts(m, packetSize); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.history.recordAll(0, topo.Nodes())
	s.updateMetricsLocked()
	return s, nil
}

// Topology exposes the underlying topology for read-only use.
func (s *Session) Topology() *core.Topology {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topo
}

func (s *Session) PacketSize() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.packetSize
}

func (s *Session) Model() energy.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

//
// ---------- Routing ----------
//

// Route computes the obj-optimal path from src to dst, drains every node on
// it, re-assigns edge costs and records the new battery levels.
//
// A failed query changes nothing. Routing errors are returned unwrapped so
// callers can match routing.ErrNoRoute.
func (s *Session) Route(ctx context.Context, obj routing.Objective, src, dst core.NodeID) (model.RouteResult, error) {
	ctx, span := observability.StartSpan(ctx, "Session.Route",
		attribute.String("mesh.objective", obj.String()),
		attribute.Int("mesh.source", int(src)),
		attribute.Int("mesh.target", int(dst)),
	)
	defer span.End()
	log := logging.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	path, err := routing.ShortestPath(s.topo, obj, src, dst)
	took := time.Since(start)
	if err != nil {
		outcome := observability.OutcomeError
		if errors.Is(err, routing.ErrNoRoute) {
			outcome = observability.OutcomeNoRoute
		}
		s.observeRouteLocked(obj, outcome, took, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug(ctx, "route not found",
			logging.String("objective", obj.String()),
			logging.Int("source", int(src)),
			logging.Int("target", int(dst)),
			logging.Err(err),
		)
		return model.RouteResult{}, err
	}

	distanceCost, energyCost, err := routing.PathCosts(s.topo, path)
	if err != nil {
		return model.RouteResult{}, fmt.Errorf("route: %w", err)
	}
	drain, err := routing.DrainAmount(s.packetSize)
	if err != nil {
		return model.RouteResult{}, fmt.Errorf("route: %w", err)
	}
	if err := routing.ApplyBatteryDrain(s.topo, path, s.packetSize); err != nil {
		return model.RouteResult{}, fmt.Errorf("route: %w", err)
	}
	if err := s.topo.AssignEnergyCosts(s.model, s.packetSize); err != nil {
		return model.RouteResult{}, fmt.Errorf("route: %w", err)
	}

	s.step++
	s.recordPathLocked(path)
	s.observeRouteLocked(obj, observability.OutcomeOK, took, path.Hops(), energyCost)
	if s.metrics != nil {
		s.metrics.AddBatteryDrain(drain * len(path))
	}
	s.updateMetricsLocked()

	span.SetAttributes(
		attribute.Int("mesh.hops", path.Hops()),
		attribute.Float64("mesh.energy_cost", energyCost),
	)
	log.Debug(ctx, "routed packet",
		logging.String("objective", obj.String()),
		logging.Int("source", int(src)),
		logging.Int("target", int(dst)),
		logging.Int("hops", path.Hops()),
		logging.Float64("distance_cost", distanceCost),
		logging.Float64("energy_cost", energyCost),
		logging.Int("drain", drain),
		logging.Int("step", s.step),
	)

	return model.RouteResult{
		Objective:    obj.String(),
		Source:       src,
		Target:       dst,
		Path:         path,
		DistanceCost: distanceCost,
		EnergyCost:   energyCost,
		PacketSize:   s.packetSize,
		Drain:        drain,
		Step:         s.step,
	}, nil
}

// Compare reports both optimal routes without draining anything.
func (s *Session) Compare(ctx context.Context, src, dst core.NodeID) (model.Comparison, error) {
	_, span := observability.StartSpan(ctx, "Session.Compare",
		attribute.Int("mesh.source", int(src)),
		attribute.Int("mesh.target", int(dst)),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	cmp, err := routing.Compare(s.topo, src, dst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Comparison{}, err
	}
	span.SetAttributes(attribute.Float64("mesh.energy_saved", cmp.EnergySaved))
	return cmp, nil
}

//
// ---------- Failures ----------
//

// FailRandomNode kills one alive node chosen uniformly at random and
// re-assigns costs. It returns ErrNoAliveNode, with nothing changed, when the
// whole mesh is already dead.
func (s *Session) FailRandomNode(ctx context.Context) (core.NodeID, error) {
	ctx, span := observability.StartSpan(ctx, "Session.FailRandomNode")
	defer span.End()
	log := logging.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.topo.FailRandomNode()
	if !ok {
		span.SetStatus(codes.Error, ErrNoAliveNode.Error())
		return core.NoNode, ErrNoAliveNode
	}
	if err := s.afterFailureLocked(id); err != nil {
		return id, err
	}
	span.SetAttributes(attribute.Int("mesh.node", int(id)))
	log.Info(ctx, "node failed",
		logging.Int("node", int(id)),
		logging.String("cause", "random"),
		logging.Int("alive", s.topo.AliveCount()),
	)
	return id, nil
}

// FailNode kills a specific node. Failing a dead node changes nothing and is
// not an error.
func (s *Session) FailNode(ctx context.Context, id core.NodeID) error {
	ctx, span := observability.StartSpan(ctx, "Session.FailNode", attribute.Int("mesh.node", int(id)))
	defer span.End()
	log := logging.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.topo.Node(id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !n.Alive() {
		return nil
	}
	if err := s.topo.FailNode(id); err != nil {
		return err
	}
	if err := s.afterFailureLocked(id); err != nil {
		return err
	}
	log.Info(ctx, "node failed",
		logging.Int("node", int(id)),
		logging.String("cause", "operator"),
		logging.Int("alive", s.topo.AliveCount()),
	)
	return nil
}

func (s *Session) afterFailureLocked(id core.NodeID) error {
	if err := s.topo.AssignEnergyCosts(s.model, s.packetSize); err != nil {
		return fmt.Errorf("fail node: %w", err)
	}
	s.step++
	s.history.record(s.step, id, core.MinEnergy)
	if s.metrics != nil {
		s.metrics.IncNodeFailures()
	}
	s.updateMetricsLocked()
	return nil
}

//
// ---------- Cost context ----------
//

// SetPacketSize switches the packet size and re-assigns costs. An invalid
// size leaves the session unchanged.
func (s *Session) SetPacketSize(ctx context.Context, size float64) error {
	log := logging.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.topo.AssignEnergyCosts(s.model, size); err != nil {
		return err
	}
	s.packetSize = size
	log.Info(ctx, "packet size changed", logging.Float64("packet_size", size))
	return nil
}

// SetModel swaps the energy model and re-assigns costs.
func (s *Session) SetModel(ctx context.Context, m energy.Model) error {
	if m == nil {
		return core.ErrNilModel
	}
	log := logging.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.topo.AssignEnergyCosts(m, s.packetSize); err != nil {
		return err
	}
	s.model = m
	log.Info(ctx, "energy model changed", logging.String("model", m.Name()))
	return nil
}

// EnergyCurve evaluates the active model at distance for sizes, defaulting to
// the canonical packet sizes. It holds the write lock because stochastic
// models share their random source with cost assignment.
func (s *Session) EnergyCurve(distance float64, sizes ...energy.PacketSize) ([]energy.CurvePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return energy.Curve(s.model, distance, sizes...)
}

//
// ---------- Lifecycle ----------
//

// Regenerate replaces the mesh with a freshly generated one, keeping the
// model and packet size. History restarts at step 0.
func (s *Session) Regenerate(ctx context.Context, nodeCount int, opts ...core.Option) error {
	topo, err := core.Generate(nodeCount, opts...)
	if err != nil {
		return err
	}
	return s.Replace(ctx, topo)
}

// Replace swaps in topo, assigning costs with the current model and packet
// size. History restarts at step 0.
func (s *Session) Replace(ctx context.Context, topo *core.Topology) error {
	if topo == nil {
		return ErrNilTopology
	}
	log := logging.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := topo.AssignEnergyCosts(s.model, s.packetSize); err != nil {
		return err
	}
	s.topo = topo
	s.step = 0
	s.history.reset()
	s.history.recordAll(0, topo.Nodes())
	s.updateMetricsLocked()

	log.Info(ctx, "mesh replaced",
		logging.Int("nodes", topo.NodeCount()),
		logging.Int("edges", topo.EdgeCount()),
	)
	return nil
}

//
// ---------- Reads ----------
//

// Status summarises alive and dead counts plus the active cost context.
func (s *Session) Status() model.NetworkStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := s.topo.NodeCount()
	alive := s.topo.AliveCount()
	return model.NetworkStatus{
		Nodes:      nodes,
		Alive:      alive,
		Dead:       nodes - alive,
		Edges:      s.topo.EdgeCount(),
		AliveEdges: s.topo.AliveSubgraph().EdgeCount(),
		Model:      s.model.Name(),
		PacketSize: s.packetSize,
		Step:       s.step,
	}
}

// Snapshot returns copies of all nodes and edges taken under the session
// lock, so they describe the same step.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Nodes:      s.topo.Nodes(),
		Edges:      s.topo.Edges(),
		Costs:      s.topo.CostContext(),
		PacketSize: s.packetSize,
		Step:       s.step,
	}
}

// AliveNodes returns the ids of nodes with energy > 0.
func (s *Session) AliveNodes() []core.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topo.AliveSubgraph().Nodes()
}

// EnergyHistory returns a copy of the recorded battery samples per node.
func (s *Session) EnergyHistory() map[core.NodeID][]EnergySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.copy()
}

// NodeHistory returns the samples of one node.
func (s *Session) NodeHistory(id core.NodeID) []EnergySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.node(id)
}

func (s *Session) recordPathLocked(path core.Path) {
	for _, id := range path {
		e, err := s.topo.Energy(id)
		if err != nil {
			continue
		}
		s.history.record(s.step, id, e)
	}
}

func (s *Session) observeRouteLocked(obj routing.Objective, outcome string, took time.Duration, hops int, energyCost float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRoute(obj.String(), outcome, took, hops, energyCost)
}

// updateMetricsLocked pushes mesh counts to the recorder. Caller must hold
// s.mu.
func (s *Session) updateMetricsLocked() {
	if s.metrics == nil {
		return
	}
	nodes := s.topo.NodeCount()
	alive := s.topo.AliveCount()
	s.metrics.SetMeshCounts(alive, nodes-alive, s.topo.EdgeCount())
}

// RandomPair picks two distinct alive nodes using r. ok is false when fewer
// than two nodes are alive.
func (s *Session) RandomPair(r *rand.Rand) (src, dst core.NodeID, ok bool) {
	alive := s.AliveNodes()
	if len(alive) < 2 {
		return core.NoNode, core.NoNode, false
	}
	i := r.Intn(len(alive))
	j := r.Intn(len(alive) - 1)
	if j >= i {
		j++
	}
	return alive[i], alive[j], true
}
