package model

import "github.com/signalsfoundry/mesh-energy-router/core"

// RouteResult describes one routed packet: the path chosen for the
// objective, what it cost, and the battery drain it caused.
type RouteResult struct {
	Objective string
	Source    core.NodeID
	Target    core.NodeID
	Path      core.Path

	// DistanceCost and EnergyCost are summed over the path edges using the
	// costs in effect when the route was computed.
	DistanceCost float64
	EnergyCost   float64

	PacketSize float64
	// Drain is the energy removed from every node on Path.
	Drain int
	// Step is the session step number assigned to this route.
	Step int
}

// Comparison holds the distance-optimal and energy-optimal routes between the
// same pair, computed against one snapshot of the mesh.
type Comparison struct {
	Source core.NodeID
	Target core.NodeID

	DistancePath         core.Path
	DistancePathDistance float64
	DistancePathEnergy   float64

	EnergyPath         core.Path
	EnergyPathDistance float64
	EnergyPathEnergy   float64

	// EnergySaved is DistancePathEnergy - EnergyPathEnergy, never negative.
	EnergySaved float64
	// EnergySavedPercent is EnergySaved relative to DistancePathEnergy, or 0
	// when the distance path costs nothing.
	EnergySavedPercent float64
}
