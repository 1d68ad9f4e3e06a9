package core

import (
	"fmt"
	"math/rand"
)

const (
	DefaultEdgeProbability = 0.3
	DefaultMinEnergy       = 80
	DefaultMaxEnergy       = 100
	DefaultMinDistance     = 1
	DefaultMaxDistance     = 20

	// MaxNodeCount bounds generated meshes; pair sampling is quadratic.
	MaxNodeCount = 10000
)

type options struct {
	rng             *rand.Rand
	edgeProbability float64
	minEnergy       int
	maxEnergy       int
	minDistance     int
	maxDistance     int
}

func defaultOptions() options {
	return options{
		edgeProbability: DefaultEdgeProbability,
		minEnergy:       DefaultMinEnergy,
		maxEnergy:       DefaultMaxEnergy,
		minDistance:     DefaultMinDistance,
		maxDistance:     DefaultMaxDistance,
	}
}

// Option customises topology construction.
type Option func(*options)

// WithRand sets the random source used for generation and FailRandomNode.
// The topology takes ownership of r; it must not be used elsewhere.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithSeed is WithRand with a freshly seeded source.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithEdgeProbability sets the independent inclusion probability per pair.
func WithEdgeProbability(p float64) Option {
	return func(o *options) {
		o.edgeProbability = p
	}
}

// WithEnergyRange sets the inclusive range initial energies are drawn from.
func WithEnergyRange(min, max int) Option {
	return func(o *options) {
		o.minEnergy, o.maxEnergy = min, max
	}
}

// WithDistanceRange sets the inclusive integer range edge distances are drawn from.
func WithDistanceRange(min, max int) Option {
	return func(o *options) {
		o.minDistance, o.maxDistance = min, max
	}
}

func (o options) validate() error {
	if o.edgeProbability < 0 || o.edgeProbability > 1 {
		return fmt.Errorf("%w: edge probability %v not in [0,1]", ErrInvalidGeneration, o.edgeProbability)
	}
	if o.minEnergy < MinEnergy || o.maxEnergy > MaxEnergy || o.minEnergy > o.maxEnergy {
		return fmt.Errorf("%w: energy range [%d,%d]", ErrInvalidGeneration, o.minEnergy, o.maxEnergy)
	}
	if o.minDistance < 1 || o.minDistance > o.maxDistance {
		return fmt.Errorf("%w: distance range [%d,%d]", ErrInvalidGeneration, o.minDistance, o.maxDistance)
	}
	return nil
}

// Generate builds a random mesh of nodeCount nodes. Each node starts with an
// energy drawn uniformly from [80,100]; each unordered pair {i,j}, i<j, gets
// an edge with probability 0.3 and an integer distance drawn from [1,20].
// Pairs are visited in ascending (i, j) order, so a fixed seed reproduces the
// same mesh.
//
// The result may be disconnected. Energy costs are zero until
// AssignEnergyCosts is called.
func Generate(nodeCount int, opts ...Option) (*Topology, error) {
	if nodeCount < 1 || nodeCount > MaxNodeCount {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidNodeCount, nodeCount, MaxNodeCount)
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := newEmpty(nodeCount, cfg.rng)
	rng := t.rng
	for i := range t.nodes {
		t.nodes[i].Energy = cfg.minEnergy + rng.Intn(cfg.maxEnergy-cfg.minEnergy+1)
	}
	for i := 0; i < nodeCount; i++ {
		for j := i + 1; j < nodeCount; j++ {
			if rng.Float64() >= cfg.edgeProbability {
				continue
			}
			d := cfg.minDistance + rng.Intn(cfg.maxDistance-cfg.minDistance+1)
			if err := t.addEdgeLocked(EdgeSpec{A: NodeID(i), B: NodeID(j), Distance: float64(d)}); err != nil {
				return nil, fmt.Errorf("generate: %w", err)
			}
		}
	}
	return t, nil
}
