package model

// NetworkStatus summarises a mesh session.
type NetworkStatus struct {
	Nodes int
	Alive int
	Dead  int
	Edges int

	// AliveEdges counts edges whose endpoints are both alive.
	AliveEdges int

	Model      string
	PacketSize float64
	Step       int
}
