// Package types maps router domain values onto the google.protobuf.Struct
// messages carried by the RouterService.
package types

import (
	"fmt"
	"strconv"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/model"
	"google.golang.org/protobuf/types/known/structpb"
)

//
// Field names shared by requests and responses.
//

const (
	FieldSource          = "source"
	FieldTarget          = "target"
	FieldObjective       = "objective"
	FieldNode            = "node"
	FieldNodes           = "nodes"
	FieldEdges           = "edges"
	FieldPacketSize      = "packet_size"
	FieldSeed            = "seed"
	FieldEdgeProbability = "edge_probability"
	FieldDistance        = "distance"
	FieldSizes           = "sizes"
)

//
// ---------- Outbound mapping ----------
//

// PathToList converts a path to a list of numeric node ids.
func PathToList(p core.Path) []any {
	out := make([]any, len(p))
	for i, id := range p {
		out[i] = int(id)
	}
	return out
}

// NodeToMap renders a node with its derived alive flag.
func NodeToMap(n core.Node) map[string]any {
	return map[string]any{
		"id":     int(n.ID),
		"energy": n.Energy,
		"alive":  n.Alive(),
	}
}

// EdgeToMap renders an edge. energy_cost is only meaningful when the
// topology reports cost_assigned.
func EdgeToMap(e core.Edge) map[string]any {
	return map[string]any{
		"a":           int(e.A),
		"b":           int(e.B),
		"distance":    e.Distance,
		"energy_cost": e.EnergyCost,
	}
}

// SnapshotToStruct renders the full mesh as of one session step.
func SnapshotToStruct(s state.Snapshot) (*structpb.Struct, error) {
	nodes := make([]any, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = NodeToMap(n)
	}
	edges := make([]any, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = EdgeToMap(e)
	}
	return newStruct("topology", map[string]any{
		FieldNodes:      nodes,
		FieldEdges:      edges,
		"model":         s.Costs.Model,
		"cost_assigned": s.Costs.Assigned,
		FieldPacketSize: s.PacketSize,
		"step":          s.Step,
	})
}

// StatusToStruct renders a status summary.
func StatusToStruct(st model.NetworkStatus) (*structpb.Struct, error) {
	return newStruct("status", statusMap(st))
}

func statusMap(st model.NetworkStatus) map[string]any {
	return map[string]any{
		FieldNodes:      st.Nodes,
		"alive":         st.Alive,
		"dead":          st.Dead,
		FieldEdges:      st.Edges,
		"alive_edges":   st.AliveEdges,
		"model":         st.Model,
		FieldPacketSize: st.PacketSize,
		"step":          st.Step,
	}
}

// RouteToStruct renders a routed packet.
func RouteToStruct(r model.RouteResult) (*structpb.Struct, error) {
	return newStruct("route", map[string]any{
		FieldObjective:  r.Objective,
		FieldSource:     int(r.Source),
		FieldTarget:     int(r.Target),
		"path":          PathToList(r.Path),
		"hops":          r.Path.Hops(),
		"distance_cost": r.DistanceCost,
		"energy_cost":   r.EnergyCost,
		FieldPacketSize: r.PacketSize,
		"drain":         r.Drain,
		"step":          r.Step,
	})
}

// ComparisonToStruct renders a distance vs energy comparison.
func ComparisonToStruct(c model.Comparison) (*structpb.Struct, error) {
	return newStruct("comparison", map[string]any{
		FieldSource: int(c.Source),
		FieldTarget: int(c.Target),
		"distance_path": map[string]any{
			"path":          PathToList(c.DistancePath),
			"distance_cost": c.DistancePathDistance,
			"energy_cost":   c.DistancePathEnergy,
		},
		"energy_path": map[string]any{
			"path":          PathToList(c.EnergyPath),
			"distance_cost": c.EnergyPathDistance,
			"energy_cost":   c.EnergyPathEnergy,
		},
		"energy_saved":         c.EnergySaved,
		"energy_saved_percent": c.EnergySavedPercent,
	})
}

// FailureToStruct renders the outcome of a node failure.
func FailureToStruct(id core.NodeID, st model.NetworkStatus) (*structpb.Struct, error) {
	return newStruct("failure", map[string]any{
		FieldNode: int(id),
		"status":  statusMap(st),
	})
}

// CurveToStruct renders an energy curve at a fixed distance.
func CurveToStruct(modelName string, distance float64, points []energy.CurvePoint) (*structpb.Struct, error) {
	list := make([]any, len(points))
	for i, p := range points {
		list[i] = map[string]any{
			"size":  float64(p.Size),
			"label": p.Size.String(),
			"cost":  p.Cost,
		}
	}
	return newStruct("energy curve", map[string]any{
		"model":       modelName,
		FieldDistance: distance,
		"points":      list,
	})
}

// HistoryToStruct renders per-node battery samples keyed by decimal node id.
func HistoryToStruct(history map[core.NodeID][]state.EnergySample) (*structpb.Struct, error) {
	series := make(map[string]any, len(history))
	for id, samples := range history {
		list := make([]any, len(samples))
		for i, s := range samples {
			list[i] = map[string]any{"step": s.Step, "energy": s.Energy}
		}
		series[strconv.Itoa(int(id))] = list
	}
	return newStruct("energy history", map[string]any{"history": series})
}

func newStruct(what string, fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", what, err)
	}
	return s, nil
}
