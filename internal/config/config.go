// Package config loads router and simulator settings from YAML with MESH_*
// environment overrides, and validates them before any component starts.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/energy"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/observability"
	"github.com/signalsfoundry/mesh-energy-router/routing"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the full set of settings for the binaries.
type Config struct {
	Topology   TopologyConfig   `yaml:"topology"`
	Energy     EnergyConfig     `yaml:"energy"`
	Routing    RoutingConfig    `yaml:"routing"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Simulation SimulationConfig `yaml:"simulation"`
}

type TopologyConfig struct {
	Nodes int `yaml:"nodes" validate:"gte=1,lte=10000"`
	// Seed 0 means seed from the clock.
	Seed            int64   `yaml:"seed"`
	EdgeProbability float64 `yaml:"edge_probability" validate:"gte=0,lte=1"`
	MinEnergy       int     `yaml:"min_energy" validate:"gte=0,lte=100"`
	MaxEnergy       int     `yaml:"max_energy" validate:"gte=0,lte=100,gtefield=MinEnergy"`
	MinDistance     int     `yaml:"min_distance" validate:"gte=1"`
	MaxDistance     int     `yaml:"max_distance" validate:"gtefield=MinDistance"`
	// Scenario, when set, is a JSON file with a fixed mesh that replaces
	// random generation.
	Scenario string `yaml:"scenario"`
}

type EnergyConfig struct {
	Model       string  `yaml:"model" validate:"oneof=deterministic stochastic"`
	PacketSize  string  `yaml:"packet_size" validate:"required"`
	ElecPerUnit float64 `yaml:"elec_per_unit" validate:"gt=0"`
	AmpPerUnit  float64 `yaml:"amp_per_unit" validate:"gte=0"`
}

type RoutingConfig struct {
	Objective string `yaml:"objective" validate:"oneof=distance energy"`
}

type ServerConfig struct {
	ListenAddress  string `yaml:"listen_address" validate:"required"`
	MetricsAddress string `yaml:"metrics_address"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter" validate:"omitempty,oneof=stdout otlp otlpgrpc"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
}

type SimulationConfig struct {
	Ticks        int           `yaml:"ticks" validate:"gte=1"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// FailureEvery injects a random node failure every N ticks; 0 disables.
	FailureEvery     int   `yaml:"failure_every" validate:"gte=0"`
	StopOnFirstDeath bool  `yaml:"stop_on_first_death"`
	Seed             int64 `yaml:"seed"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Topology: TopologyConfig{
			Nodes:           20,
			EdgeProbability: core.DefaultEdgeProbability,
			MinEnergy:       core.DefaultMinEnergy,
			MaxEnergy:       core.DefaultMaxEnergy,
			MinDistance:     core.DefaultMinDistance,
			MaxDistance:     core.DefaultMaxDistance,
		},
		Energy: EnergyConfig{
			Model:       string(energy.KindDeterministic),
			PacketSize:  energy.Small.String(),
			ElecPerUnit: energy.DefaultElecPerUnit,
			AmpPerUnit:  energy.DefaultAmpPerUnit,
		},
		Routing: RoutingConfig{Objective: string(routing.ObjectiveEnergy)},
		Server: ServerConfig{
			ListenAddress:  ":50051",
			MetricsAddress: ":9090",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "mesh-router",
			SampleRatio: 1,
		},
		Simulation: SimulationConfig{
			Ticks:        500,
			TickInterval: 0,
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
// Unknown keys are rejected. The result is not validated; call ApplyEnv and
// then Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks struct constraints and the values that need parsing.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, formatValidationError(err))
	}
	if _, err := energy.ParsePacketSize(c.Energy.PacketSize); err != nil {
		return fmt.Errorf("%w: energy.packet_size: %v", ErrInvalidConfig, err)
	}
	if c.Simulation.TickInterval < 0 {
		return fmt.Errorf("%w: simulation.tick_interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", e.Namespace())
	case "gte", "min":
		return fmt.Sprintf("%s: must be at least %s", e.Namespace(), e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s: must not exceed %s", e.Namespace(), e.Param())
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", e.Namespace(), e.Param())
	case "gtefield":
		return fmt.Sprintf("%s: must be at least %s", e.Namespace(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %q", e.Namespace(), e.Param(), fmt.Sprint(e.Value()))
	default:
		return fmt.Sprintf("%s: validation failed (%s)", e.Namespace(), e.Tag())
	}
}

//
// ---------- Derived values ----------
//

// PacketSize returns the parsed packet size. Call after Validate.
func (c Config) PacketSize() float64 {
	size, err := energy.ParsePacketSize(c.Energy.PacketSize)
	if err != nil {
		return float64(energy.Small)
	}
	return float64(size)
}

// Objective returns the configured routing objective.
func (c Config) Objective() routing.Objective {
	obj, err := routing.ParseObjective(c.Routing.Objective)
	if err != nil {
		return routing.ObjectiveDistance
	}
	return obj
}

// EnergyModel builds the configured model. src feeds the stochastic model.
func (c Config) EnergyModel(src energy.RandSource) (energy.Model, error) {
	kind, err := energy.ParseKind(c.Energy.Model)
	if err != nil {
		return nil, err
	}
	if kind == energy.KindDeterministic {
		return &energy.FirstOrderRadio{ElecPerUnit: c.Energy.ElecPerUnit, AmpPerUnit: c.Energy.AmpPerUnit}, nil
	}
	return energy.New(kind, src)
}

// TopologyOptions translates the topology section into generation options.
func (c Config) TopologyOptions() []core.Option {
	opts := []core.Option{
		core.WithEdgeProbability(c.Topology.EdgeProbability),
		core.WithEnergyRange(c.Topology.MinEnergy, c.Topology.MaxEnergy),
		core.WithDistanceRange(c.Topology.MinDistance, c.Topology.MaxDistance),
	}
	if c.Topology.Seed != 0 {
		opts = append(opts, core.WithSeed(c.Topology.Seed))
	}
	return opts
}

// Rand returns a source seeded from seed, or from the clock when seed is 0.
func Rand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// LoggerConfig converts the logging section for logging.New.
func (c Config) LoggerConfig() logging.Config {
	return logging.Config{Level: c.Logging.Level, Format: c.Logging.Format}
}

// TracingConfig converts the tracing section for observability.InitTracing.
func (c Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
