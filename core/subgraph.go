package core

// Subgraph is an immutable view of the alive part of a Topology: nodes with
// energy > 0 and the edges whose endpoints are both alive.
type Subgraph struct {
	alive []bool
	// incident lists, per node, the alive edges touching it ordered by (A, B).
	incident [][]Edge
	edges    int
}

// Has reports whether id is an alive node of the view.
func (s *Subgraph) Has(id NodeID) bool {
	return id >= 0 && int(id) < len(s.alive) && s.alive[id]
}

// Nodes returns the alive node ids in ascending order.
func (s *Subgraph) Nodes() []NodeID {
	out := make([]NodeID, 0, len(s.alive))
	for i, ok := range s.alive {
		if ok {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Incident returns the alive edges touching id. The slice must not be
// modified.
func (s *Subgraph) Incident(id NodeID) []Edge {
	if !s.Has(id) {
		return nil
	}
	return s.incident[id]
}

// Size is the number of node slots, alive or not; valid ids are [0, Size).
func (s *Subgraph) Size() int {
	return len(s.alive)
}

// EdgeCount returns the number of alive edges.
func (s *Subgraph) EdgeCount() int {
	return s.edges
}

// Edge returns the alive edge joining a and b in either order, with the costs
// captured when the view was taken.
func (s *Subgraph) Edge(a, b NodeID) (Edge, bool) {
	for _, e := range s.Incident(a) {
		if e.Other(a) == b {
			return e, true
		}
	}
	return Edge{}, false
}
