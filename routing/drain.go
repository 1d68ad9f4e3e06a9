package routing

import (
	"math"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
)

// DrainAmount is the energy removed from each node on a path for one packet:
// max(1, round(2*packetSize)), with halves rounded to even. Sizes 1, 5 and 10
// drain 2, 10 and 20.
func DrainAmount(packetSize float64) (int, error) {
	if err := energy.ValidatePacketSize(packetSize); err != nil {
		return 0, err
	}
	amount := math.RoundToEven(2 * packetSize)
	if amount < 1 {
		return 1, nil
	}
	if amount > core.MaxEnergy {
		return core.MaxEnergy, nil
	}
	return int(amount), nil
}

// ApplyBatteryDrain removes DrainAmount(packetSize) from every node on path,
// flooring at 0. Dead nodes are drained too, which leaves them at 0. Edge
// costs are not touched.
func ApplyBatteryDrain(t *core.Topology, path core.Path, packetSize float64) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	amount, err := DrainAmount(packetSize)
	if err != nil {
		return err
	}
	return t.Drain(path, amount)
}
