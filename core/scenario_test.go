package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadScenario(t *testing.T) {
	const doc = `{
	  "nodes": [{"id": 2, "energy": 40}, {"id": 0}, {"id": 1, "energy": 0}],
	  "edges": [{"a": 0, "b": 1, "distance": 5.5}, {"a": 2, "b": 0, "distance": 10}]
	}`
	topo, err := LoadScenario(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	wantEnergy := []int{MaxEnergy, 0, 40}
	for i, n := range topo.Nodes() {
		if n.Energy != wantEnergy[i] {
			t.Fatalf("node %d energy = %d, want %d", i, n.Energy, wantEnergy[i])
		}
	}
	if e, ok := topo.Edge(0, 2); !ok || e.A != 0 || e.B != 2 || e.Distance != 10 {
		t.Fatalf("Edge(0,2) = %+v, %v", e, ok)
	}
	if topo.AliveCount() != 2 {
		t.Fatalf("AliveCount = %d, want 2", topo.AliveCount())
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"gap in ids", `{"nodes":[{"id":0},{"id":2}],"edges":[]}`, ErrUnknownNode},
		{"edge to missing node", `{"nodes":[{"id":0},{"id":1}],"edges":[{"a":0,"b":5,"distance":1}]}`, ErrUnknownNode},
		{"energy out of range", `{"nodes":[{"id":0,"energy":150}],"edges":[]}`, ErrInvalidEnergy},
		{"duplicate edge", `{"nodes":[{"id":0},{"id":1}],"edges":[{"a":0,"b":1,"distance":1},{"a":1,"b":0,"distance":1}]}`, ErrDuplicateEdge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadScenario(strings.NewReader(tc.doc)); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := LoadScenario(strings.NewReader(`{"nodes":[],"bogus":1}`)); err == nil {
		t.Fatalf("expected decode error for unknown field")
	}
}

func TestLoadSampleScenario(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "configs", "triangle.json"))
	if err != nil {
		t.Fatalf("open sample: %v", err)
	}
	defer f.Close()

	topo, err := LoadScenario(f)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if topo.NodeCount() != 3 || topo.EdgeCount() != 3 {
		t.Fatalf("nodes=%d edges=%d, want 3 and 3", topo.NodeCount(), topo.EdgeCount())
	}
}
