package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/internal/config"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/traffic"
	"github.com/signalsfoundry/mesh-energy-router/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	ticks := flag.Int("ticks", 0, "Number of ticks to simulate (overrides config)")
	tick := flag.Duration("tick", 0, "Wall-clock pause between ticks; 0 runs accelerated (overrides config)")
	failureEvery := flag.Int("failure-every", 0, "Fail a random node every N ticks; 0 disables (overrides config)")
	stopOnDeath := flag.Bool("stop-on-first-death", false, "Stop at the first node death (overrides config)")
	objective := flag.String("objective", "", "Routing objective: distance or energy (overrides config)")
	nodes := flag.Int("nodes", 0, "Number of mesh nodes (overrides config)")
	seed := flag.Int64("seed", 0, "Topology seed; shared by both runs in -compare mode (overrides config)")
	compare := flag.Bool("compare", false, "Run both objectives on identical meshes and report both")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ticks":
			cfg.Simulation.Ticks = *ticks
		case "tick":
			cfg.Simulation.TickInterval = *tick
		case "failure-every":
			cfg.Simulation.FailureEvery = *failureEvery
		case "stop-on-first-death":
			cfg.Simulation.StopOnFirstDeath = *stopOnDeath
		case "objective":
			cfg.Routing.Objective = *objective
		case "nodes":
			cfg.Topology.Nodes = *nodes
		case "seed":
			cfg.Topology.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(cfg.LoggerConfig())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, objectives := plan(cfg, *compare)

	reports := make([]traffic.Report, 0, len(objectives))
	for _, obj := range objectives {
		rep, err := simulate(ctx, cfg, obj, log)
		if err != nil {
			log.Error(ctx, "simulation failed", logging.String("objective", obj.String()), logging.Err(err))
			os.Exit(1)
		}
		reports = append(reports, rep)
	}

	if err := writeReports(os.Stdout, cfg, reports); err != nil {
		log.Error(ctx, "failed to write report", logging.Err(err))
		os.Exit(1)
	}
}

// plan returns the objectives to run. In compare mode both objectives run
// and the topology and flow seeds are pinned so the runs see the same mesh
// and the same source/target draws.
func plan(cfg config.Config, compare bool) (config.Config, []routing.Objective) {
	if !compare {
		return cfg, []routing.Objective{cfg.Objective()}
	}
	now := time.Now().UnixNano()
	if cfg.Topology.Seed == 0 {
		cfg.Topology.Seed = now
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = now + 1
	}
	return cfg, routing.Objectives
}

// simulate runs one traffic simulation on a freshly built mesh.
func simulate(ctx context.Context, cfg config.Config, obj routing.Objective, log logging.Logger) (traffic.Report, error) {
	topo, err := core.Generate(cfg.Topology.Nodes, cfg.TopologyOptions()...)
	if err != nil {
		return traffic.Report{}, err
	}
	m, err := cfg.EnergyModel(config.Rand(cfg.Topology.Seed))
	if err != nil {
		return traffic.Report{}, err
	}
	session, err := state.NewSession(topo, m, cfg.PacketSize(), log)
	if err != nil {
		return traffic.Report{}, err
	}

	sim, err := traffic.New(session, log,
		traffic.WithObjective(obj),
		traffic.WithFailureEvery(cfg.Simulation.FailureEvery),
		traffic.WithStopOnFirstDeath(cfg.Simulation.StopOnFirstDeath),
		traffic.WithTickInterval(cfg.Simulation.TickInterval),
		traffic.WithRand(config.Rand(cfg.Simulation.Seed)),
	)
	if err != nil {
		return traffic.Report{}, err
	}
	return sim.Run(ctx, cfg.Simulation.Ticks)
}

type summary struct {
	Nodes      int              `json:"nodes"`
	Seed       int64            `json:"seed"`
	FlowSeed   int64            `json:"flow_seed"`
	Model      string           `json:"model"`
	PacketSize float64          `json:"packet_size"`
	Reports    []traffic.Report `json:"reports"`
}

func writeReports(w io.Writer, cfg config.Config, reports []traffic.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary{
		Nodes:      cfg.Topology.Nodes,
		Seed:       cfg.Topology.Seed,
		FlowSeed:   cfg.Simulation.Seed,
		Model:      cfg.Energy.Model,
		PacketSize: cfg.PacketSize(),
		Reports:    reports,
	})
}
