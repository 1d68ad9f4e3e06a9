package state

import "github.com/signalsfoundry/mesh-energy-router/core"

// EnergySample is the battery level of a node after a given session step.
type EnergySample struct {
	Step   int `json:"step"`
	Energy int `json:"energy"`
}

// energyHistory stores per-node battery samples. Only nodes touched by a step
// get a sample for it. It is guarded by the owning Session's lock.
type energyHistory struct {
	series map[core.NodeID][]EnergySample
	limit  int
}

func newEnergyHistory() *energyHistory {
	return &energyHistory{series: make(map[core.NodeID][]EnergySample)}
}

func (h *energyHistory) record(step int, id core.NodeID, energy int) {
	s := append(h.series[id], EnergySample{Step: step, Energy: energy})
	if h.limit > 0 && len(s) > h.limit {
		s = append(s[:0:0], s[len(s)-h.limit:]...)
	}
	h.series[id] = s
}

func (h *energyHistory) recordAll(step int, nodes []core.Node) {
	for _, n := range nodes {
		h.record(step, n.ID, n.Energy)
	}
}

func (h *energyHistory) reset() {
	h.series = make(map[core.NodeID][]EnergySample)
}

func (h *energyHistory) node(id core.NodeID) []EnergySample {
	src := h.series[id]
	if len(src) == 0 {
		return nil
	}
	out := make([]EnergySample, len(src))
	copy(out, src)
	return out
}

func (h *energyHistory) copy() map[core.NodeID][]EnergySample {
	out := make(map[core.NodeID][]EnergySample, len(h.series))
	for id := range h.series {
		out[id] = h.node(id)
	}
	return out
}
