package nbi

import (
	"errors"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/routing"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatusError maps router errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, routing.ErrNoRoute):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrUnknownNode),
		errors.Is(err, core.ErrInvalidNodeCount),
		errors.Is(err, core.ErrInvalidGeneration),
		errors.Is(err, core.ErrInvalidDistance),
		errors.Is(err, energy.ErrInvalidDistance),
		errors.Is(err, energy.ErrInvalidPacketSize),
		errors.Is(err, energy.ErrUnknownModel),
		errors.Is(err, routing.ErrUnknownObjective):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, state.ErrNoAliveNode):
		return status.Error(codes.FailedPrecondition, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
