package energy

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFirstOrderRadioKnownValues(t *testing.T) {
	m := NewFirstOrderRadio()
	cases := []struct {
		distance, size, want float64
	}{
		{5, 1, 1.0},
		{10, 1, 2.5},
		{5.5, 1, 1.105},
		{0, 5, 2.5},
		{10, 10, 25},
	}
	for _, tc := range cases {
		got, err := m.Cost(tc.distance, tc.size)
		if err != nil {
			t.Fatalf("Cost(%v, %v): %v", tc.distance, tc.size, err)
		}
		if !approxEqual(got, tc.want) {
			t.Fatalf("Cost(%v, %v) = %v, want %v", tc.distance, tc.size, got, tc.want)
		}
	}
}

func TestFirstOrderRadioRejectsBadInput(t *testing.T) {
	m := NewFirstOrderRadio()
	if _, err := m.Cost(-1, 1); !errors.Is(err, ErrInvalidDistance) {
		t.Fatalf("negative distance err = %v, want ErrInvalidDistance", err)
	}
	if _, err := m.Cost(math.NaN(), 1); !errors.Is(err, ErrInvalidDistance) {
		t.Fatalf("NaN distance err = %v, want ErrInvalidDistance", err)
	}
	if _, err := m.Cost(3, 0); !errors.Is(err, ErrInvalidPacketSize) {
		t.Fatalf("zero packet size err = %v, want ErrInvalidPacketSize", err)
	}
	if _, err := m.Cost(3, -5); !errors.Is(err, ErrInvalidPacketSize) {
		t.Fatalf("negative packet size err = %v, want ErrInvalidPacketSize", err)
	}
}

func TestFirstOrderRadioDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	m := NewFirstOrderRadio()
	properties.Property("identical inputs give identical cost", prop.ForAll(
		func(d, s float64) bool {
			a, errA := m.Cost(d, s)
			b, errB := m.Cost(d, s)
			return errA == nil && errB == nil && a == b
		},
		gen.Float64Range(0, 1000),
		gen.Float64Range(0.001, 100),
	))

	properties.Property("cost grows with distance", prop.ForAll(
		func(d, delta, s float64) bool {
			near, _ := m.Cost(d, s)
			far, _ := m.Cost(d+delta, s)
			return far >= near
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0.001, 100),
	))

	properties.TestingRun(t)
}

type fixedSource struct {
	values []float64
	next   int
}

func (f *fixedSource) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

func TestNoisyLinearUsesRandSource(t *testing.T) {
	src := &fixedSource{values: []float64{0, 0.5, 0.999}}
	m, err := NewNoisyLinear(src)
	if err != nil {
		t.Fatalf("NewNoisyLinear: %v", err)
	}
	want := []float64{10*0.8 + 1, 10*0.8 + 3, 10*0.8 + 1 + 4*0.999}
	for i, w := range want {
		got, err := m.Cost(10, 1)
		if err != nil {
			t.Fatalf("Cost call %d: %v", i, err)
		}
		if !approxEqual(got, w) {
			t.Fatalf("Cost call %d = %v, want %v", i, got, w)
		}
	}
	if m.Deterministic() {
		t.Fatalf("NoisyLinear must not report deterministic")
	}
}

func TestNoisyLinearIgnoresPacketSizeAndStaysInBand(t *testing.T) {
	m, err := NewNoisyLinear(rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewNoisyLinear: %v", err)
	}
	for i := 0; i < 500; i++ {
		cost, err := m.Cost(4, float64(i%10)-3)
		if err != nil {
			t.Fatalf("Cost: %v", err)
		}
		if cost < 4*0.8+1 || cost > 4*0.8+5 {
			t.Fatalf("cost %v outside [%v,%v]", cost, 4*0.8+1, 4*0.8+5)
		}
	}
	if _, err := m.Cost(-2, 1); !errors.Is(err, ErrInvalidDistance) {
		t.Fatalf("negative distance err = %v, want ErrInvalidDistance", err)
	}
}

func TestNewModelByKind(t *testing.T) {
	if _, err := New(KindStochastic, nil); !errors.Is(err, ErrNilRandSource) {
		t.Fatalf("stochastic without source err = %v, want ErrNilRandSource", err)
	}
	m, err := New(KindDeterministic, nil)
	if err != nil {
		t.Fatalf("New deterministic: %v", err)
	}
	if !m.Deterministic() || m.Name() != "deterministic" {
		t.Fatalf("unexpected model %s (deterministic=%v)", m.Name(), m.Deterministic())
	}
	if _, err := ParseKind("quantum"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("ParseKind err = %v, want ErrUnknownModel", err)
	}
	if k, err := ParseKind(" Stochastic "); err != nil || k != KindStochastic {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
}
