package energy

import (
	"fmt"
	"strconv"
	"strings"
)

// PacketSize is a relative packet-size multiplier.
type PacketSize float64

const (
	Small  PacketSize = 1
	Medium PacketSize = 5
	Large  PacketSize = 10
)

// CanonicalSizes lists the sizes exposed to operators, smallest first.
var CanonicalSizes = []PacketSize{Small, Medium, Large}

// ParsePacketSize accepts "small", "medium", "large" or a positive number.
func ParsePacketSize(s string) (PacketSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return Small, nil
	case "medium":
		return Medium, nil
	case "large":
		return Large, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPacketSize, s)
	}
	if err := ValidatePacketSize(v); err != nil {
		return 0, err
	}
	return PacketSize(v), nil
}

func (p PacketSize) String() string {
	switch p {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return strconv.FormatFloat(float64(p), 'g', -1, 64)
	}
}

// CurvePoint is one sample of cost against packet size at a fixed distance.
type CurvePoint struct {
	Size PacketSize
	Cost float64
}

// Curve evaluates m at distance for each size, defaulting to CanonicalSizes.
func Curve(m Model, distance float64, sizes ...PacketSize) ([]CurvePoint, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrUnknownModel)
	}
	if len(sizes) == 0 {
		sizes = CanonicalSizes
	}
	out := make([]CurvePoint, 0, len(sizes))
	for _, size := range sizes {
		cost, err := m.Cost(distance, float64(size))
		if err != nil {
			return nil, err
		}
		out = append(out, CurvePoint{Size: size, Cost: cost})
	}
	return out, nil
}
