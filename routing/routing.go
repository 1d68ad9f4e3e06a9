// Package routing computes routes over a mesh topology.
//
// Every query takes a fresh alive view of the topology, so nodes drained or
// failed since the previous call are excluded immediately. The package holds
// no state of its own; mutation happens only through ApplyBatteryDrain, which
// writes node energy back to the topology.
//
// Ties between equal-weight shortest paths are resolved by settling
// lower node ids first and keeping the first predecessor found. The choice
// is stable for a given topology but should not be relied on across
// topology changes.
package routing

import (
	"github.com/signalsfoundry/mesh-energy-router/core"
)

// ShortestPathByDistance returns the alive path from src to dst with the
// smallest summed edge distance.
func ShortestPathByDistance(t *core.Topology, src, dst core.NodeID) (core.Path, error) {
	return ShortestPath(t, ObjectiveDistance, src, dst)
}

// ShortestPathByEnergy returns the alive path from src to dst with the
// smallest summed edge energy cost. Costs are taken as last assigned.
func ShortestPathByEnergy(t *core.Topology, src, dst core.NodeID) (core.Path, error) {
	return ShortestPath(t, ObjectiveEnergy, src, dst)
}

// ShortestPath dispatches on obj. It fails with *NoRouteError when src or
// dst is dead or unknown, or when they are not connected through alive nodes.
func ShortestPath(t *core.Topology, obj Objective, src, dst core.NodeID) (core.Path, error) {
	return shortestPath(t.AliveSubgraph(), obj, src, dst)
}
