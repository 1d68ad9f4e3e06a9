package nbi

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/routing"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestParseRouteRequest(t *testing.T) {
	in, _ := structpb.NewStruct(map[string]any{"source": 3, "target": 7, "objective": " Energy "})
	req, err := ParseRouteRequest(in)
	if err != nil {
		t.Fatalf("ParseRouteRequest: %v", err)
	}
	if req.Source != 3 || req.Target != 7 || req.Objective != routing.ObjectiveEnergy {
		t.Fatalf("req = %+v", req)
	}

	if _, err := ParseRouteRequest(nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("nil request err = %v", err)
	}
	null, _ := structpb.NewStruct(map[string]any{"source": nil, "target": 1})
	if _, err := ParseRouteRequest(null); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("null source err = %v", err)
	}
	bad, _ := structpb.NewStruct(map[string]any{"source": 1, "target": 2, "objective": 4})
	if _, err := ParseRouteRequest(bad); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("numeric objective err = %v", err)
	}
}

func TestParseFailNodeRequest(t *testing.T) {
	req, err := ParseFailNodeRequest(&structpb.Struct{})
	if err != nil || !req.Random || req.Node != core.NoNode {
		t.Fatalf("empty request = %+v, %v", req, err)
	}
	in, _ := structpb.NewStruct(map[string]any{"node": 4})
	req, err = ParseFailNodeRequest(in)
	if err != nil || req.Random || req.Node != 4 {
		t.Fatalf("request = %+v, %v", req, err)
	}
}

func TestParseRegenerateRequest(t *testing.T) {
	in, _ := structpb.NewStruct(map[string]any{"nodes": 30, "seed": 9})
	req, err := ParseRegenerateRequest(in)
	if err != nil {
		t.Fatalf("ParseRegenerateRequest: %v", err)
	}
	if req.Nodes != 30 || !req.HasSeed || req.Seed != 9 || req.HasProbability {
		t.Fatalf("req = %+v", req)
	}
	if got := len(req.Options()); got != 1 {
		t.Fatalf("options = %d, want 1", got)
	}

	frac, _ := structpb.NewStruct(map[string]any{"nodes": 2.5})
	if _, err := ParseRegenerateRequest(frac); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("fractional nodes err = %v", err)
	}
	for _, n := range []float64{0, -4, core.MaxNodeCount + 1} {
		big, _ := structpb.NewStruct(map[string]any{"nodes": n})
		if _, err := ParseRegenerateRequest(big); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("nodes=%v err = %v, want ErrInvalidRequest", n, err)
		}
	}
}

func TestParsePacketSizeRequest(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		err  error
	}{
		{in: "small", want: 1},
		{in: "Medium", want: 5},
		{in: 7.5, want: 7.5},
		{in: "3", want: 3},
		{in: 0, err: energy.ErrInvalidPacketSize},
		{in: "tiny", err: energy.ErrInvalidPacketSize},
		{in: []any{1}, err: ErrInvalidRequest},
	}
	for _, tc := range cases {
		in, err := structpb.NewStruct(map[string]any{"packet_size": tc.in})
		if err != nil {
			t.Fatalf("NewStruct: %v", err)
		}
		got, err := ParsePacketSizeRequest(in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("ParsePacketSizeRequest(%v) err = %v, want %v", tc.in, err, tc.err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParsePacketSizeRequest(%v) = %v, %v, want %v", tc.in, got, err, tc.want)
		}
	}
}
