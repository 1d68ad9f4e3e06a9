package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/mesh-energy-router/energy"
)

var (
	ErrUnknownNode       = errors.New("unknown node")
	ErrSelfLoop          = errors.New("edge endpoints must differ")
	ErrDuplicateEdge     = errors.New("edge already exists")
	ErrInvalidDistance   = errors.New("invalid edge distance")
	ErrInvalidEnergy     = errors.New("invalid node energy")
	ErrInvalidNodeCount  = errors.New("invalid node count")
	ErrInvalidGeneration = errors.New("invalid generation parameters")
	ErrInvalidDrain      = errors.New("invalid drain amount")
	ErrNilModel          = errors.New("nil energy model")
	ErrMissingEdge       = errors.New("no edge between nodes")
)

// CostContext records which model and packet size produced the current edge
// energy costs.
type CostContext struct {
	Assigned   bool
	Model      string
	PacketSize float64
}

// Topology is the mesh graph: a fixed set of nodes with mutable battery
// levels and undirected edges with fixed distances and derived energy costs.
//
// Topology is concurrency-safe via an internal RWMutex; every exported method
// is a single critical section.
type Topology struct {
	mu sync.RWMutex

	nodes []Node
	edges map[edgeKey]*Edge
	// adj holds neighbour ids per node, sorted ascending.
	adj [][]NodeID

	rng   *rand.Rand
	costs CostContext
}

// NewTopology builds a topology from explicit node energies (node i gets
// energies[i]) and edges. It is the constructor for fixed scenarios; use
// Generate for random meshes.
func NewTopology(energies []int, edges []EdgeSpec, opts ...Option) (*Topology, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	t := newEmpty(len(energies), cfg.rng)
	for i, e := range energies {
		if e < MinEnergy || e > MaxEnergy {
			return nil, fmt.Errorf("%w: node %d energy %d not in [%d,%d]", ErrInvalidEnergy, i, e, MinEnergy, MaxEnergy)
		}
		t.nodes[i].Energy = e
	}
	for _, spec := range edges {
		if err := t.addEdgeLocked(spec); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func newEmpty(n int, rng *rand.Rand) *Topology {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	t := &Topology{
		nodes: make([]Node, n),
		edges: make(map[edgeKey]*Edge),
		adj:   make([][]NodeID, n),
		rng:   rng,
	}
	for i := range t.nodes {
		t.nodes[i] = Node{ID: NodeID(i)}
	}
	return t
}

// addEdgeLocked validates and inserts spec. Caller must hold t.mu or own t
// exclusively during construction.
func (t *Topology) addEdgeLocked(spec EdgeSpec) error {
	if !t.hasNodeLocked(spec.A) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, spec.A)
	}
	if !t.hasNodeLocked(spec.B) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, spec.B)
	}
	if spec.A == spec.B {
		return fmt.Errorf("%w: %d", ErrSelfLoop, spec.A)
	}
	if math.IsNaN(spec.Distance) || math.IsInf(spec.Distance, 0) || spec.Distance <= 0 {
		return fmt.Errorf("%w: %d-%d distance %v", ErrInvalidDistance, spec.A, spec.B, spec.Distance)
	}
	key := keyOf(spec.A, spec.B)
	if _, exists := t.edges[key]; exists {
		return fmt.Errorf("%w: %d-%d", ErrDuplicateEdge, key.a, key.b)
	}

	t.edges[key] = &Edge{A: key.a, B: key.b, Distance: spec.Distance}
	t.adj[key.a] = insertSorted(t.adj[key.a], key.b)
	t.adj[key.b] = insertSorted(t.adj[key.b], key.a)
	return nil
}

func (t *Topology) hasNodeLocked(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

//
// ---------- Energy costs ----------
//

// AssignEnergyCosts overwrites every edge's EnergyCost with
// model.Cost(distance, packetSize). Costs are computed for all edges before
// any is written, so a failing model leaves the previous costs intact.
// packetSize must be positive and finite even for models that ignore it, and
// every resulting cost must be finite.
//
// Callers re-apply after changing the model or packet size; node energy does
// not enter the cost.
func (t *Topology) AssignEnergyCosts(model energy.Model, packetSize float64) error {
	if model == nil {
		return ErrNilModel
	}
	if err := energy.ValidatePacketSize(packetSize); err != nil {
		return fmt.Errorf("assign energy costs: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	keys := t.sortedKeysLocked()
	costs := make([]float64, len(keys))
	for i, key := range keys {
		cost, err := model.Cost(t.edges[key].Distance, packetSize)
		if err != nil {
			return fmt.Errorf("assign energy costs: edge %d-%d: %w", key.a, key.b, err)
		}
		if math.IsInf(cost, 0) || math.IsNaN(cost) {
			return fmt.Errorf("assign energy costs: edge %d-%d: %w: cost overflows at size %v", key.a, key.b, energy.ErrInvalidPacketSize, packetSize)
		}
		costs[i] = cost
	}
	for i, key := range keys {
		t.edges[key].EnergyCost = costs[i]
	}
	t.costs = CostContext{Assigned: true, Model: model.Name(), PacketSize: packetSize}
	return nil
}

// CostContext returns the model and packet size last applied to edge costs.
func (t *Topology) CostContext() CostContext {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.costs
}

//
// ---------- Energy mutation ----------
//

// FailRandomNode picks a node with energy > 0 uniformly at random and sets
// its energy to 0. It returns (NoNode, false) without touching any state when
// every node is already dead. Edges are left in place.
func (t *Topology) FailRandomNode() (NodeID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	alive := make([]NodeID, 0, len(t.nodes))
	for _, n := range t.nodes {
		if n.Alive() {
			alive = append(alive, n.ID)
		}
	}
	if len(alive) == 0 {
		return NoNode, false
	}
	id := alive[t.rng.Intn(len(alive))]
	t.nodes[id].Energy = MinEnergy
	return id, true
}

// FailNode sets the energy of a specific node to 0. Failing a dead node is a
// no-op.
func (t *Topology) FailNode(id NodeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasNodeLocked(id) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	t.nodes[id].Energy = MinEnergy
	return nil
}

// Drain subtracts amount from every listed node, flooring at 0. Every id is
// validated before any energy changes. Duplicate ids are drained once per
// occurrence.
func (t *Topology) Drain(ids []NodeID, amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDrain, amount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		if !t.hasNodeLocked(id) {
			return fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
	}
	for _, id := range ids {
		t.nodes[id].Energy = clampEnergy(t.nodes[id].Energy - amount)
	}
	return nil
}

//
// ---------- Read accessors ----------
//

// NodeCount returns the fixed number of nodes.
func (t *Topology) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// EdgeCount returns the number of edges.
func (t *Topology) EdgeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.edges)
}

// AliveCount returns the number of nodes with energy > 0.
func (t *Topology) AliveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	alive := 0
	for _, n := range t.nodes {
		if n.Alive() {
			alive++
		}
	}
	return alive
}

// NodeIDs returns every node id in ascending order.
func (t *Topology) NodeIDs() []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]NodeID, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.ID
	}
	return out
}

// Nodes returns a copy of all nodes ordered by id.
func (t *Topology) Nodes() []Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Node returns a copy of the node with the given id.
func (t *Topology) Node(id NodeID) (Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.hasNodeLocked(id) {
		return Node{}, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return t.nodes[id], nil
}

// Energy returns the battery level of a node.
func (t *Topology) Energy(id NodeID) (int, error) {
	n, err := t.Node(id)
	if err != nil {
		return 0, err
	}
	return n.Energy, nil
}

// Edges returns a copy of all edges ordered by (A, B).
func (t *Topology) Edges() []Edge {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := t.sortedKeysLocked()
	out := make([]Edge, len(keys))
	for i, key := range keys {
		out[i] = *t.edges[key]
	}
	return out
}

// Edge returns the edge joining a and b in either order.
func (t *Topology) Edge(a, b NodeID) (Edge, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.edges[keyOf(a, b)]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Neighbors returns the ids adjacent to id regardless of liveness.
func (t *Topology) Neighbors(id NodeID) ([]NodeID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.hasNodeLocked(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	out := make([]NodeID, len(t.adj[id]))
	copy(out, t.adj[id])
	return out, nil
}

// PathEdges returns the edges joining consecutive nodes of path, read under a
// single lock so costs are consistent with each other. Every node must exist
// and every consecutive pair must share an edge.
func (t *Topology) PathEdges(path Path) ([]Edge, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, id := range path {
		if !t.hasNodeLocked(id) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
	}
	if len(path) < 2 {
		return nil, nil
	}
	out := make([]Edge, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		e, ok := t.edges[keyOf(path[i-1], path[i])]
		if !ok {
			return nil, fmt.Errorf("%w: %d-%d", ErrMissingEdge, path[i-1], path[i])
		}
		out = append(out, *e)
	}
	return out, nil
}

// AliveSubgraph captures, under a single read lock, the nodes with energy > 0
// and the edges joining two of them. The result is detached from t and is not
// updated by later mutations.
func (t *Topology) AliveSubgraph() *Subgraph {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sg := &Subgraph{
		alive:    make([]bool, len(t.nodes)),
		incident: make([][]Edge, len(t.nodes)),
	}
	for _, n := range t.nodes {
		sg.alive[n.ID] = n.Alive()
	}
	for _, key := range t.sortedKeysLocked() {
		if !sg.alive[key.a] || !sg.alive[key.b] {
			continue
		}
		e := *t.edges[key]
		sg.incident[key.a] = append(sg.incident[key.a], e)
		sg.incident[key.b] = append(sg.incident[key.b], e)
		sg.edges++
	}
	return sg
}

func (t *Topology) sortedKeysLocked() []edgeKey {
	keys := make([]edgeKey, 0, len(t.edges))
	for k := range t.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	return keys
}

func insertSorted(ids []NodeID, id NodeID) []NodeID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
