package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides fields from MESH_* environment variables. Unset
// variables leave the field alone; malformed values are errors.
func (c *Config) ApplyEnv() error {
	for _, o := range []struct {
		name  string
		apply func(string) error
	}{
		{"MESH_NODES", intVar(&c.Topology.Nodes)},
		{"MESH_SEED", int64Var(&c.Topology.Seed)},
		{"MESH_EDGE_PROBABILITY", floatVar(&c.Topology.EdgeProbability)},
		{"MESH_SCENARIO", stringVar(&c.Topology.Scenario)},
		{"MESH_ENERGY_MODEL", stringVar(&c.Energy.Model)},
		{"MESH_PACKET_SIZE", stringVar(&c.Energy.PacketSize)},
		{"MESH_OBJECTIVE", stringVar(&c.Routing.Objective)},
		{"MESH_LISTEN_ADDRESS", stringVar(&c.Server.ListenAddress)},
		{"MESH_METRICS_ADDRESS", stringVar(&c.Server.MetricsAddress)},
		{"MESH_LOG_LEVEL", stringVar(&c.Logging.Level)},
		{"MESH_LOG_FORMAT", stringVar(&c.Logging.Format)},
		{"MESH_TRACING_ENABLED", boolVar(&c.Tracing.Enabled)},
		{"MESH_TRACING_EXPORTER", stringVar(&c.Tracing.Exporter)},
		{"MESH_TRACING_SERVICE_NAME", stringVar(&c.Tracing.ServiceName)},
		{"MESH_TRACING_SAMPLE_RATIO", floatVar(&c.Tracing.SampleRatio)},
		{"MESH_OTLP_ENDPOINT", stringVar(&c.Tracing.Endpoint)},
		{"MESH_SIM_TICKS", intVar(&c.Simulation.Ticks)},
		{"MESH_SIM_TICK_INTERVAL", durationVar(&c.Simulation.TickInterval)},
		{"MESH_SIM_FAILURE_EVERY", intVar(&c.Simulation.FailureEvery)},
		{"MESH_SIM_STOP_ON_FIRST_DEATH", boolVar(&c.Simulation.StopOnFirstDeath)},
	} {
		raw, ok := os.LookupEnv(o.name)
		if !ok {
			continue
		}
		if err := o.apply(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, o.name, raw, err)
		}
	}
	return nil
}

func stringVar(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func int64Var(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func floatVar(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
