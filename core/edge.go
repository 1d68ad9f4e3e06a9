package core

// Edge is an undirected radio link between two distinct nodes. A is always
// the smaller id.
//
// Distance is fixed when the edge is created. EnergyCost is derived from
// Distance and the packet size by an energy model and stays zero until
// AssignEnergyCosts runs.
type Edge struct {
	A          NodeID  `json:"a"`
	B          NodeID  `json:"b"`
	Distance   float64 `json:"distance"`
	EnergyCost float64 `json:"energy_cost"`
}

// Other returns the endpoint opposite to id.
func (e Edge) Other(id NodeID) NodeID {
	if e.A == id {
		return e.B
	}
	return e.A
}

// EdgeSpec describes an edge to insert when building a topology explicitly.
type EdgeSpec struct {
	A        NodeID  `json:"a"`
	B        NodeID  `json:"b"`
	Distance float64 `json:"distance"`
}

type edgeKey struct {
	a, b NodeID
}

func keyOf(a, b NodeID) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// Path is an ordered walk through the topology, at least one node long, where
// consecutive nodes share an edge. Paths are produced by the routing package.
type Path []NodeID

// Hops is the number of edges traversed.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Contains reports whether id appears on the path.
func (p Path) Contains(id NodeID) bool {
	for _, n := range p {
		if n == id {
			return true
		}
	}
	return false
}
