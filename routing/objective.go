package routing

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/mesh-energy-router/core"
)

// Objective selects the edge attribute a route minimises.
type Objective string

const (
	ObjectiveDistance Objective = "distance"
	ObjectiveEnergy   Objective = "energy"
)

// Objectives lists every supported objective.
var Objectives = []Objective{ObjectiveDistance, ObjectiveEnergy}

// ParseObjective resolves an objective name. The empty string selects
// ObjectiveDistance.
func ParseObjective(s string) (Objective, error) {
	switch Objective(strings.ToLower(strings.TrimSpace(s))) {
	case ObjectiveDistance, "":
		return ObjectiveDistance, nil
	case ObjectiveEnergy:
		return ObjectiveEnergy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownObjective, s)
	}
}

func (o Objective) String() string {
	return string(o)
}

func (o Objective) weight() (weightFunc, error) {
	switch o {
	case ObjectiveDistance:
		return func(e core.Edge) float64 { return e.Distance }, nil
	case ObjectiveEnergy:
		return func(e core.Edge) float64 { return e.EnergyCost }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjective, string(o))
	}
}
