// Package timectrl drives simulation steps. Each tick advances simulation
// time by a fixed amount and notifies registered listeners in order.
package timectrl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStop may be returned by a listener to end the run after the current
// tick. Run reports it as a clean stop.
var ErrStop = errors.New("timectrl: stop requested")

// SimClock gives read access to simulation time so consumers need not
// depend on the concrete controller. *TimeController implements it.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// Ticks returns how many ticks have completed.
	Ticks() int
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime waits one Tick of wall-clock time between steps.
	RealTime Mode = iota
	// Accelerated steps as fast as the listeners allow.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Listener is invoked once per tick. tick counts from 1.
type Listener func(ctx context.Context, tick int, now time.Time) error

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	ticks       int

	listeners []Listener
}

var _ SimClock = (*TimeController)(nil)

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Ticks returns the number of completed ticks in the current run.
func (tc *TimeController) Ticks() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.ticks
}

// AddListener registers a callback invoked on every tick. Listeners run in
// registration order on the controller goroutine.
func (tc *TimeController) AddListener(fn Listener) {
	if fn == nil {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Run advances the clock for up to maxTicks ticks (forever when maxTicks <= 0)
// and returns the number of ticks completed. It stops early when ctx is done,
// returning ctx.Err(), or when a listener returns an error. ErrStop ends the
// run with a nil error.
func (tc *TimeController) Run(ctx context.Context, maxTicks int) (int, error) {
	if tc.Tick <= 0 {
		return 0, fmt.Errorf("timectrl: tick must be positive, got %v", tc.Tick)
	}

	tc.mu.Lock()
	simTime := tc.StartTime
	tc.currentTime = simTime
	tc.ticks = 0
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.Unlock()

	var wait <-chan time.Time
	if tc.Mode == RealTime {
		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()
		wait = ticker.C
	}

	for tick := 1; maxTicks <= 0 || tick <= maxTicks; tick++ {
		if wait != nil {
			select {
			case <-ctx.Done():
				return tick - 1, ctx.Err()
			case <-wait:
			}
		} else if err := ctx.Err(); err != nil {
			return tick - 1, err
		}

		simTime = simTime.Add(tc.Tick)
		tc.mu.Lock()
		tc.currentTime = simTime
		tc.ticks = tick
		tc.mu.Unlock()

		for _, fn := range listeners {
			if err := fn(ctx, tick, simTime); err != nil {
				if errors.Is(err, ErrStop) {
					return tick, nil
				}
				return tick, err
			}
		}
	}
	return maxTicks, nil
}
