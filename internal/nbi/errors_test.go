package nbi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/routing"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    codes.Code
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "status passthrough", err: status.Error(codes.PermissionDenied, "denied"), code: codes.PermissionDenied},
		{name: "no route", err: &routing.NoRouteError{Objective: routing.ObjectiveEnergy, Source: 0, Target: 2, Reason: routing.ReasonDisconnected}, code: codes.NotFound},
		{name: "invalid request", err: fmt.Errorf("%w: source is required", ErrInvalidRequest), code: codes.InvalidArgument},
		{name: "unknown node", err: fmt.Errorf("route: %w", core.ErrUnknownNode), code: codes.InvalidArgument},
		{name: "node count", err: core.ErrInvalidNodeCount, code: codes.InvalidArgument},
		{name: "packet size", err: energy.ErrInvalidPacketSize, code: codes.InvalidArgument},
		{name: "objective", err: routing.ErrUnknownObjective, code: codes.InvalidArgument},
		{name: "no alive node", err: state.ErrNoAliveNode, code: codes.FailedPrecondition},
		{name: "fallback", err: errors.New("boom"), code: codes.Internal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ToStatusError(tc.err)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("ToStatusError(nil) = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("ToStatusError(%v) = nil, want error", tc.err)
			}
			if code := status.Code(got); code != tc.code {
				t.Fatalf("ToStatusError(%v) code = %v, want %v", tc.err, code, tc.code)
			}
		})
	}
}
