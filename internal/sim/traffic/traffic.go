// Package traffic replays random unicast flows over a live session until the
// mesh wears out or the clock ends.
package traffic

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/routing"
	"github.com/signalsfoundry/mesh-energy-router/timectrl"
)

// StopReason says why a run ended.
type StopReason string

const (
	StopClockEnded   StopReason = "clock ended"
	StopFirstDeath   StopReason = "first node death"
	StopMeshDepleted StopReason = "fewer than two alive nodes"
	StopCanceled     StopReason = "canceled"
)

// Report summarises a simulation run.
type Report struct {
	Objective string `json:"objective"`
	Ticks     int    `json:"ticks"`
	Delivered int    `json:"delivered"`
	NoRoute   int    `json:"no_route"`
	Failures  int    `json:"failures"`
	// FirstDeathTick is the tick of the first node death, 0 if none died.
	FirstDeathTick int `json:"first_death_tick"`
	// FirstDeathSeconds is the simulated time of the first death.
	FirstDeathSeconds float64 `json:"first_death_seconds"`
	// SimulatedSeconds is the simulated time covered by the run.
	SimulatedSeconds float64    `json:"simulated_seconds"`
	TotalEnergyCost  float64    `json:"total_energy_cost"`
	TotalHops        int        `json:"total_hops"`
	AliveAtEnd       int        `json:"alive_at_end"`
	Reason           StopReason `json:"reason"`
}

// DeliveryRatio is delivered packets over attempted packets.
func (r Report) DeliveryRatio() float64 {
	attempted := r.Delivered + r.NoRoute
	if attempted == 0 {
		return 0
	}
	return float64(r.Delivered) / float64(attempted)
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithObjective selects the routing objective; energy is the default.
func WithObjective(obj routing.Objective) Option {
	return func(s *Simulator) { s.objective = obj }
}

// WithFailureEvery fails a random alive node every n ticks. Zero disables
// failure injection.
func WithFailureEvery(n int) Option {
	return func(s *Simulator) { s.failureEvery = n }
}

// WithStopOnFirstDeath ends the run at the first node death, whether caused
// by drain or injected failure.
func WithStopOnFirstDeath(stop bool) Option {
	return func(s *Simulator) { s.stopOnFirstDeath = stop }
}

// WithRand sets the source used to pick flow endpoints.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithTickInterval paces the run in wall-clock time. Zero runs accelerated.
func WithTickInterval(d time.Duration) Option {
	return func(s *Simulator) { s.interval = d }
}

// Simulator drives one flow per tick through a Session.
type Simulator struct {
	session *state.Session
	log     logging.Logger

	objective        routing.Objective
	failureEvery     int
	stopOnFirstDeath bool
	rng              *rand.Rand
	interval         time.Duration
}

// New builds a simulator over session.
func New(session *state.Session, log logging.Logger, opts ...Option) (*Simulator, error) {
	if session == nil {
		return nil, state.ErrNilTopology
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &Simulator{
		session:   session,
		log:       log,
		objective: routing.ObjectiveEnergy,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if _, err := routing.ParseObjective(string(s.objective)); err != nil {
		return nil, fmt.Errorf("traffic: %w", err)
	}
	if s.failureEvery < 0 {
		return nil, fmt.Errorf("traffic: failure interval must be >= 0, got %d", s.failureEvery)
	}
	if s.interval < 0 {
		return nil, fmt.Errorf("traffic: tick interval must be >= 0, got %v", s.interval)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// Run advances the clock for up to ticks ticks, or until another stop
// condition holds when ticks <= 0. A canceled context ends the run with the
// partial report and no error.
func (s *Simulator) Run(ctx context.Context, ticks int) (Report, error) {
	clock := s.newClock()
	rep := Report{Objective: s.objective.String(), Reason: StopClockEnded}

	clock.AddListener(func(ctx context.Context, tick int, _ time.Time) error {
		return s.step(ctx, clock, tick, &rep)
	})

	s.log.Info(ctx, "traffic simulation started",
		logging.String("objective", s.objective.String()),
		logging.Int("ticks", ticks),
		logging.Int("failure_every", s.failureEvery),
		logging.Bool("stop_on_first_death", s.stopOnFirstDeath),
	)

	n, err := clock.Run(ctx, ticks)
	rep.Ticks = n
	rep.SimulatedSeconds = elapsed(clock, clock.StartTime)
	rep.AliveAtEnd = s.session.Status().Alive
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return rep, err
		}
		rep.Reason = StopCanceled
	}

	s.log.Info(ctx, "traffic simulation finished",
		logging.Int("ticks", rep.Ticks),
		logging.Int("delivered", rep.Delivered),
		logging.Int("no_route", rep.NoRoute),
		logging.Int("failures", rep.Failures),
		logging.Int("first_death_tick", rep.FirstDeathTick),
		logging.Float64("simulated_seconds", rep.SimulatedSeconds),
		logging.Float64("total_energy_cost", rep.TotalEnergyCost),
		logging.String("reason", string(rep.Reason)),
	)
	return rep, nil
}

func (s *Simulator) newClock() *timectrl.TimeController {
	if s.interval > 0 {
		return timectrl.NewTimeController(time.Now(), s.interval, timectrl.RealTime)
	}
	return timectrl.NewTimeController(time.Unix(0, 0).UTC(), time.Second, timectrl.Accelerated)
}

func elapsed(clock timectrl.SimClock, start time.Time) float64 {
	return clock.Now().Sub(start).Seconds()
}

func (s *Simulator) step(ctx context.Context, clock *timectrl.TimeController, tick int, rep *Report) error {
	deadBefore := s.session.Status().Dead

	src, dst, ok := s.session.RandomPair(s.rng)
	if !ok {
		rep.Reason = StopMeshDepleted
		return timectrl.ErrStop
	}

	res, err := s.session.Route(ctx, s.objective, src, dst)
	switch {
	case err == nil:
		rep.Delivered++
		rep.TotalEnergyCost += res.EnergyCost
		rep.TotalHops += res.Path.Hops()
	case errors.Is(err, routing.ErrNoRoute):
		rep.NoRoute++
	default:
		return fmt.Errorf("tick %d: %w", tick, err)
	}

	if s.failureEvery > 0 && tick%s.failureEvery == 0 {
		if _, err := s.session.FailRandomNode(ctx); err == nil {
			rep.Failures++
		} else if !errors.Is(err, state.ErrNoAliveNode) {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
	}

	if s.session.Status().Dead > deadBefore && rep.FirstDeathTick == 0 {
		rep.FirstDeathTick = tick
		rep.FirstDeathSeconds = elapsed(clock, clock.StartTime)
		s.log.Debug(ctx, "first node death",
			logging.Int("tick", tick),
			logging.Float64("simulated_seconds", rep.FirstDeathSeconds),
		)
		if s.stopOnFirstDeath {
			rep.Reason = StopFirstDeath
			return timectrl.ErrStop
		}
	}
	return nil
}
