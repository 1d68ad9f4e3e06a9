package routing

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/mesh-energy-router/core"
)

var (
	ErrNoRoute          = errors.New("no route")
	ErrEmptyPath        = errors.New("empty path")
	ErrUnknownObjective = errors.New("unknown routing objective")
)

// NoRouteReason explains why a shortest-path query failed.
type NoRouteReason string

const (
	ReasonSourceNotAlive NoRouteReason = "source not alive"
	ReasonTargetNotAlive NoRouteReason = "target not alive"
	ReasonDisconnected   NoRouteReason = "disconnected"
)

// NoRouteError is returned by the shortest-path queries when source or target
// is not an alive node, or when no alive path joins them. It matches
// ErrNoRoute with errors.Is.
type NoRouteError struct {
	Objective Objective
	Source    core.NodeID
	Target    core.NodeID
	Reason    NoRouteReason
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no %s route from %d to %d: %s", e.Objective, e.Source, e.Target, e.Reason)
}

func (e *NoRouteError) Is(target error) bool {
	return target == ErrNoRoute
}
