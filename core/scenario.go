// core/scenario.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// internal JSON shapes – keep them unexported so we’re free to evolve them.
type scenarioJSON struct {
	Nodes []scenarioNodeJSON `json:"nodes"`
	Edges []EdgeSpec         `json:"edges"`
}

type scenarioNodeJSON struct {
	ID     NodeID `json:"id"`
	Energy *int   `json:"energy"` // optional; defaults to MaxEnergy
}

// LoadScenario reads a fixed mesh from JSON:
//
//	{"nodes": [{"id": 0, "energy": 90}, ...],
//	 "edges": [{"a": 0, "b": 1, "distance": 5}, ...]}
//
// Node ids must be exactly 0..n-1 in any order. Edge validation follows
// NewTopology.
func LoadScenario(r io.Reader, opts ...Option) (*Topology, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	nodes := make([]scenarioNodeJSON, len(payload.Nodes))
	copy(nodes, payload.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	energies := make([]int, len(nodes))
	for i, n := range nodes {
		if n.ID != NodeID(i) {
			return nil, fmt.Errorf("LoadScenario: %w: node ids must be dense from 0, got %d at position %d", ErrUnknownNode, n.ID, i)
		}
		energies[i] = MaxEnergy
		if n.Energy != nil {
			energies[i] = *n.Energy
		}
	}

	t, err := NewTopology(energies, payload.Edges, opts...)
	if err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return t, nil
}
