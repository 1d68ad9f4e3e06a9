package nbi

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/nbi/types"
	"github.com/signalsfoundry/mesh-energy-router/routing"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	// ErrInvalidRequest marks malformed or missing request fields.
	ErrInvalidRequest = errors.New("invalid request")
)

// RouteRequest is the decoded form of Route and CompareRoutes requests.
type RouteRequest struct {
	Source    core.NodeID
	Target    core.NodeID
	Objective routing.Objective
}

// FailNodeRequest selects a node to fail. Random is set when no node id was
// given.
type FailNodeRequest struct {
	Node   core.NodeID
	Random bool
}

// RegenerateRequest describes a fresh random mesh.
type RegenerateRequest struct {
	Nodes           int
	Seed            int64
	HasSeed         bool
	EdgeProbability float64
	HasProbability  bool
}

// Options converts the request into generation options.
func (r RegenerateRequest) Options() []core.Option {
	var opts []core.Option
	if r.HasSeed {
		opts = append(opts, core.WithSeed(r.Seed))
	}
	if r.HasProbability {
		opts = append(opts, core.WithEdgeProbability(r.EdgeProbability))
	}
	return opts
}

// EnergyCurveRequest asks for model costs at one distance.
type EnergyCurveRequest struct {
	Distance float64
	Sizes    []energy.PacketSize
}

// ParseRouteRequest reads source, target and an optional objective.
func ParseRouteRequest(in *structpb.Struct) (RouteRequest, error) {
	src, err := requiredNodeID(in, types.FieldSource)
	if err != nil {
		return RouteRequest{}, err
	}
	dst, err := requiredNodeID(in, types.FieldTarget)
	if err != nil {
		return RouteRequest{}, err
	}
	name, _, err := optionalString(in, types.FieldObjective)
	if err != nil {
		return RouteRequest{}, err
	}
	obj, err := routing.ParseObjective(name)
	if err != nil {
		return RouteRequest{}, err
	}
	return RouteRequest{Source: src, Target: dst, Objective: obj}, nil
}

// ParseFailNodeRequest reads an optional node id.
func ParseFailNodeRequest(in *structpb.Struct) (FailNodeRequest, error) {
	v, ok := field(in, types.FieldNode)
	if !ok {
		return FailNodeRequest{Node: core.NoNode, Random: true}, nil
	}
	id, err := nodeIDValue(types.FieldNode, v)
	if err != nil {
		return FailNodeRequest{}, err
	}
	return FailNodeRequest{Node: id}, nil
}

// ParsePacketSizeRequest accepts packet_size as a positive number or one of
// "small", "medium", "large".
func ParsePacketSizeRequest(in *structpb.Struct) (float64, error) {
	v, ok := field(in, types.FieldPacketSize)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidRequest, types.FieldPacketSize)
	}
	return packetSizeValue(v)
}

// ParseRegenerateRequest reads nodes plus optional seed and edge_probability.
func ParseRegenerateRequest(in *structpb.Struct) (RegenerateRequest, error) {
	v, ok := field(in, types.FieldNodes)
	if !ok {
		return RegenerateRequest{}, fmt.Errorf("%w: %s is required", ErrInvalidRequest, types.FieldNodes)
	}
	n, err := integerValue(types.FieldNodes, v)
	if err != nil {
		return RegenerateRequest{}, err
	}
	if n < 1 || n > core.MaxNodeCount {
		return RegenerateRequest{}, fmt.Errorf("%w: %s must be in [1,%d], got %d", ErrInvalidRequest, types.FieldNodes, core.MaxNodeCount, n)
	}
	req := RegenerateRequest{Nodes: int(n)}

	if v, ok := field(in, types.FieldSeed); ok {
		seed, err := integerValue(types.FieldSeed, v)
		if err != nil {
			return RegenerateRequest{}, err
		}
		req.Seed, req.HasSeed = seed, true
	}
	if v, ok := field(in, types.FieldEdgeProbability); ok {
		p, err := numberValue(types.FieldEdgeProbability, v)
		if err != nil {
			return RegenerateRequest{}, err
		}
		req.EdgeProbability, req.HasProbability = p, true
	}
	return req, nil
}

// ParseEnergyCurveRequest reads distance and an optional list of sizes.
func ParseEnergyCurveRequest(in *structpb.Struct) (EnergyCurveRequest, error) {
	v, ok := field(in, types.FieldDistance)
	if !ok {
		return EnergyCurveRequest{}, fmt.Errorf("%w: %s is required", ErrInvalidRequest, types.FieldDistance)
	}
	d, err := numberValue(types.FieldDistance, v)
	if err != nil {
		return EnergyCurveRequest{}, err
	}
	req := EnergyCurveRequest{Distance: d}

	if v, ok := field(in, types.FieldSizes); ok {
		list := v.GetListValue()
		if list == nil {
			return EnergyCurveRequest{}, fmt.Errorf("%w: %s must be a list", ErrInvalidRequest, types.FieldSizes)
		}
		for _, item := range list.GetValues() {
			size, err := packetSizeValue(item)
			if err != nil {
				return EnergyCurveRequest{}, err
			}
			req.Sizes = append(req.Sizes, energy.PacketSize(size))
		}
	}
	return req, nil
}

// ParseHistoryRequest reads an optional node id; NoNode selects every node.
func ParseHistoryRequest(in *structpb.Struct) (core.NodeID, error) {
	v, ok := field(in, types.FieldNode)
	if !ok {
		return core.NoNode, nil
	}
	return nodeIDValue(types.FieldNode, v)
}

//
// ---------- Field helpers ----------
//

func field(in *structpb.Struct, key string) (*structpb.Value, bool) {
	if in == nil {
		return nil, false
	}
	v, ok := in.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func requiredNodeID(in *structpb.Struct, key string) (core.NodeID, error) {
	v, ok := field(in, key)
	if !ok {
		return core.NoNode, fmt.Errorf("%w: %s is required", ErrInvalidRequest, key)
	}
	return nodeIDValue(key, v)
}

func nodeIDValue(key string, v *structpb.Value) (core.NodeID, error) {
	n, err := integerValue(key, v)
	if err != nil {
		return core.NoNode, err
	}
	if n < 0 {
		return core.NoNode, fmt.Errorf("%w: %s must be >= 0, got %d", ErrInvalidRequest, key, n)
	}
	return core.NodeID(n), nil
}

func numberValue(key string, v *structpb.Value) (float64, error) {
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, key)
	}
	if math.IsNaN(nv.NumberValue) || math.IsInf(nv.NumberValue, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidRequest, key)
	}
	return nv.NumberValue, nil
}

func integerValue(key string, v *structpb.Value) (int64, error) {
	f, err := numberValue(key, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidRequest, key, f)
	}
	return int64(f), nil
}

func optionalString(in *structpb.Struct, key string) (string, bool, error) {
	v, ok := field(in, key)
	if !ok {
		return "", false, nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false, fmt.Errorf("%w: %s must be a string", ErrInvalidRequest, key)
	}
	return strings.TrimSpace(sv.StringValue), true, nil
}

func packetSizeValue(v *structpb.Value) (float64, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if err := energy.ValidatePacketSize(k.NumberValue); err != nil {
			return 0, err
		}
		return k.NumberValue, nil
	case *structpb.Value_StringValue:
		size, err := energy.ParsePacketSize(k.StringValue)
		if err != nil {
			return 0, err
		}
		return float64(size), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number or size name", ErrInvalidRequest, types.FieldPacketSize)
	}
}
