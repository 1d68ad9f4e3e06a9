package routing

import (
	"github.com/signalsfoundry/mesh-energy-router/core"
)

// PathDistanceCost sums edge distances along path. A single-node path costs 0.
func PathDistanceCost(t *core.Topology, path core.Path) (float64, error) {
	return pathCost(t, path, func(e core.Edge) float64 { return e.Distance })
}

// PathEnergyCost sums current edge energy costs along path. A single-node
// path costs 0.
func PathEnergyCost(t *core.Topology, path core.Path) (float64, error) {
	return pathCost(t, path, func(e core.Edge) float64 { return e.EnergyCost })
}

// PathCosts returns both sums from one read of the topology.
func PathCosts(t *core.Topology, path core.Path) (distance, energy float64, err error) {
	edges, err := pathEdges(t, path)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range edges {
		distance += e.Distance
		energy += e.EnergyCost
	}
	return distance, energy, nil
}

func pathCost(t *core.Topology, path core.Path, w weightFunc) (float64, error) {
	edges, err := pathEdges(t, path)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, e := range edges {
		sum += w(e)
	}
	return sum, nil
}

func pathEdges(t *core.Topology, path core.Path) ([]core.Edge, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	return t.PathEdges(path)
}
