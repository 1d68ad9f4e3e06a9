// Package energy holds the radio energy-cost models used to weight mesh edges.
//
// A Model maps (distance, packet size) to the energy spent transmitting one
// packet across one edge. Two variants exist: FirstOrderRadio, which is pure,
// and NoisyLinear, which samples an explicit random source on every call.
package energy

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidDistance   = errors.New("invalid distance")
	ErrInvalidPacketSize = errors.New("invalid packet size")
	ErrUnknownModel      = errors.New("unknown energy model")
	ErrNilRandSource     = errors.New("nil random source")
)

// Model computes the transmission cost of one edge.
type Model interface {
	// Name is the stable identifier of the model, e.g. "deterministic".
	Name() string
	// Deterministic reports whether identical inputs always yield identical costs.
	Deterministic() bool
	// Cost returns the energy needed to send a packet of packetSize over distance.
	Cost(distance, packetSize float64) (float64, error)
}

// RandSource is the capability a stochastic model draws from. *rand.Rand
// satisfies it.
type RandSource interface {
	Float64() float64
}

// Kind enumerates the closed set of available models.
type Kind string

const (
	KindDeterministic Kind = "deterministic"
	KindStochastic    Kind = "stochastic"
)

// ParseKind resolves a configured model name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDeterministic, "":
		return KindDeterministic, nil
	case KindStochastic:
		return KindStochastic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
}

// New builds the model for kind. src is only consulted by the stochastic model
// and must be non-nil for it.
func New(kind Kind, src RandSource) (Model, error) {
	switch kind {
	case KindDeterministic, "":
		return NewFirstOrderRadio(), nil
	case KindStochastic:
		return NewNoisyLinear(src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, kind)
	}
}

func validateDistance(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDistance, d)
	}
	return nil
}

// ValidatePacketSize rejects sizes that are not positive finite numbers.
func ValidatePacketSize(size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) || size <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPacketSize, size)
	}
	return nil
}
