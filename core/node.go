package core

// NodeID identifies a mesh node. IDs are dense, starting at 0, and are
// never reused for the lifetime of a Topology.
type NodeID int

// NoNode is returned where a node id is expected but none is available.
const NoNode NodeID = -1

const (
	// MinEnergy is the battery level of a dead node.
	MinEnergy = 0
	// MaxEnergy is a full battery.
	MaxEnergy = 100
)

// Node is a mesh device and its remaining battery, in [MinEnergy, MaxEnergy].
//
// There is no separate failure flag: a node is alive exactly when Energy > 0.
type Node struct {
	ID     NodeID `json:"id"`
	Energy int    `json:"energy"`
}

// Alive reports whether the node still participates in routing.
func (n Node) Alive() bool {
	return n.Energy > MinEnergy
}

func clampEnergy(e int) int {
	if e < MinEnergy {
		return MinEnergy
	}
	if e > MaxEnergy {
		return MaxEnergy
	}
	return e
}
