// internal/nbi/router_service.go
package nbi

import (
	"context"
	"errors"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/nbi/types"
	sim "github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/routing"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RouterService implements RouterServer backed by a Session.
type RouterService struct {
	session *sim.Session
	log     logging.Logger
}

var _ RouterServer = (*RouterService)(nil)

// NewRouterService constructs a RouterService bound to session.
func NewRouterService(session *sim.Session, log logging.Logger) *RouterService {
	if log == nil {
		log = logging.Noop()
	}
	return &RouterService{
		session: session,
		log:     log,
	}
}

// GetTopology returns every node and edge at the current step.
func (s *RouterService) GetTopology(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return encode(types.SnapshotToStruct(s.session.Snapshot()))
}

// GetStatus returns alive and dead counts and the active cost context.
func (s *RouterService) GetStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return encode(types.StatusToStruct(s.session.Status()))
}

// Route sends one packet along the optimal path for the requested objective
// and drains the nodes it visits.
func (s *RouterService) Route(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	req, err := ParseRouteRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	res, err := s.session.Route(ctx, req.Objective, req.Source, req.Target)
	if err != nil {
		var nr *routing.NoRouteError
		if errors.As(err, &nr) {
			s.logger(ctx).Info(ctx, "no route",
				logging.String("objective", nr.Objective.String()),
				logging.Int("source", int(nr.Source)),
				logging.Int("target", int(nr.Target)),
				logging.String("reason", string(nr.Reason)),
			)
		}
		return nil, ToStatusError(err)
	}
	return encode(types.RouteToStruct(res))
}

// CompareRoutes reports the distance and energy optimal paths side by side
// without draining any node.
func (s *RouterService) CompareRoutes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	req, err := ParseRouteRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	cmp, err := s.session.Compare(ctx, req.Source, req.Target)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.ComparisonToStruct(cmp))
}

// FailNode kills the given node, or a random alive node when none is named.
func (s *RouterService) FailNode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	req, err := ParseFailNodeRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	id := req.Node
	if req.Random {
		id, err = s.session.FailRandomNode(ctx)
	} else {
		err = s.session.FailNode(ctx, id)
	}
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.FailureToStruct(id, s.session.Status()))
}

// SetPacketSize switches the packet size and re-costs every edge.
func (s *RouterService) SetPacketSize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	size, err := ParsePacketSizeRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.session.SetPacketSize(ctx, size); err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.StatusToStruct(s.session.Status()))
}

// Regenerate replaces the mesh with a fresh random one.
func (s *RouterService) Regenerate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	req, err := ParseRegenerateRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.session.Regenerate(ctx, req.Nodes, req.Options()...); err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.StatusToStruct(s.session.Status()))
}

// EnergyCurve evaluates the active energy model at one distance across
// packet sizes.
func (s *RouterService) EnergyCurve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	req, err := ParseEnergyCurveRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	points, err := s.session.EnergyCurve(req.Distance, req.Sizes...)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.CurveToStruct(s.session.Model().Name(), req.Distance, points))
}

// GetEnergyHistory returns battery samples for one node, or for all nodes
// when no node is named.
func (s *RouterService) GetEnergyHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := ParseHistoryRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if id == core.NoNode {
		return encode(types.HistoryToStruct(s.session.EnergyHistory()))
	}
	if _, err := s.session.Topology().Node(id); err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.HistoryToStruct(map[core.NodeID][]sim.EnergySample{id: s.session.NodeHistory(id)}))
}

func (s *RouterService) ensureReady() error {
	if s == nil || s.session == nil {
		return status.Error(codes.FailedPrecondition, "router session is not configured")
	}
	return nil
}

func (s *RouterService) logger(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.log)
}

func encode(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
