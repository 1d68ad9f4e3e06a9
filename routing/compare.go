package routing

import (
	"fmt"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/model"
)

// Compare computes the distance-optimal and energy-optimal routes from src to
// dst over one alive view, then costs both paths under both metrics from that
// same view.
func Compare(t *core.Topology, src, dst core.NodeID) (model.Comparison, error) {
	return compareOn(t.AliveSubgraph(), src, dst)
}

func compareOn(g *core.Subgraph, src, dst core.NodeID) (model.Comparison, error) {
	byDistance, err := shortestPath(g, ObjectiveDistance, src, dst)
	if err != nil {
		return model.Comparison{}, err
	}
	byEnergy, err := shortestPath(g, ObjectiveEnergy, src, dst)
	if err != nil {
		return model.Comparison{}, err
	}

	cmp := model.Comparison{
		Source:       src,
		Target:       dst,
		DistancePath: byDistance,
		EnergyPath:   byEnergy,
	}
	if cmp.DistancePathDistance, cmp.DistancePathEnergy, err = snapshotCosts(g, byDistance); err != nil {
		return model.Comparison{}, err
	}
	if cmp.EnergyPathDistance, cmp.EnergyPathEnergy, err = snapshotCosts(g, byEnergy); err != nil {
		return model.Comparison{}, err
	}

	saved := cmp.DistancePathEnergy - cmp.EnergyPathEnergy
	if saved < 0 {
		saved = 0
	}
	cmp.EnergySaved = saved
	if cmp.DistancePathEnergy > 0 {
		cmp.EnergySavedPercent = saved / cmp.DistancePathEnergy * 100
	}
	return cmp, nil
}

// snapshotCosts sums distance and energy cost along path using the edges of g.
func snapshotCosts(g *core.Subgraph, path core.Path) (distance, energy float64, err error) {
	if len(path) == 0 {
		return 0, 0, ErrEmptyPath
	}
	for i := 1; i < len(path); i++ {
		e, ok := g.Edge(path[i-1], path[i])
		if !ok {
			return 0, 0, fmt.Errorf("%w: %d-%d", core.ErrMissingEdge, path[i-1], path[i])
		}
		distance += e.Distance
		energy += e.EnergyCost
	}
	return distance, energy, nil
}
