package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/mesh-energy-router/core"
	"github.com/signalsfoundry/mesh-energy-router/internal/config"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/nbi"
	"github.com/signalsfoundry/mesh-energy-router/internal/observability"
	"github.com/signalsfoundry/mesh-energy-router/internal/sim/state"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	listenAddr := flag.String("listen", "", "TCP address the gRPC server listens on (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	nodes := flag.Int("nodes", 0, "Number of mesh nodes to generate (overrides config)")
	seed := flag.Int64("seed", 0, "Seed for topology generation (overrides config)")
	scenario := flag.String("scenario", "", "JSON file with a fixed mesh (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, func(cfg *config.Config) {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "listen":
				cfg.Server.ListenAddress = *listenAddr
			case "metrics-addr":
				cfg.Server.MetricsAddress = *metricsAddr
			case "nodes":
				cfg.Topology.Nodes = *nodes
			case "seed":
				cfg.Topology.Seed = *seed
			case "scenario":
				cfg.Topology.Scenario = *scenario
			}
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mesh-router: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(cfg.LoggerConfig())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "mesh router exited", logging.Err(err))
		os.Exit(1)
	}
}

// loadConfig layers file, environment and flag overrides, then validates.
func loadConfig(path string, overrides func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}
	if overrides != nil {
		overrides(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// run serves the router on lis until ctx is done.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingConfig(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rpcMetrics, err := observability.NewRPCCollector(reg)
	if err != nil {
		return fmt.Errorf("rpc metrics: %w", err)
	}
	routeMetrics, err := observability.NewRoutingCollector(reg)
	if err != nil {
		return fmt.Errorf("routing metrics: %w", err)
	}

	session, err := newSession(cfg, log, routeMetrics)
	if err != nil {
		return err
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RequestIDUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			rpcMetrics.UnaryServerInterceptor(),
		),
	)
	nbi.RegisterRouterServer(server, nbi.NewRouterService(session, log))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus(nbi.ServiceName, healthpb.HealthCheckResponse_SERVING)

	metricsSrv := serveMetrics(cfg.Server.MetricsAddress, observability.Handler(reg), log)

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting mesh router gRPC server",
		logging.String("addr", lis.Addr().String()),
		logging.String("objective", cfg.Routing.Objective),
		logging.String("energy_model", session.Model().Name()),
	)
	go func() {
		serveErr <- server.Serve(lis)
	}()

	var result error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			result = fmt.Errorf("grpc serve: %w", err)
		}
	}

	log.Info(context.Background(), "shutting down mesh router")
	healthSrv.Shutdown()
	server.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return result
}

func newSession(cfg config.Config, log logging.Logger, metrics state.MetricsRecorder) (*state.Session, error) {
	topo, err := buildTopology(cfg)
	if err != nil {
		return nil, err
	}
	m, err := cfg.EnergyModel(config.Rand(cfg.Topology.Seed))
	if err != nil {
		return nil, err
	}
	session, err := state.NewSession(topo, m, cfg.PacketSize(), log, state.WithMetricsRecorder(metrics))
	if err != nil {
		return nil, err
	}
	st := session.Status()
	log.Info(context.Background(), "mesh ready",
		logging.Int("nodes", st.Nodes),
		logging.Int("edges", st.Edges),
		logging.Float64("packet_size", st.PacketSize),
	)
	return session, nil
}

func buildTopology(cfg config.Config) (*core.Topology, error) {
	if cfg.Topology.Scenario == "" {
		return core.Generate(cfg.Topology.Nodes, cfg.TopologyOptions()...)
	}
	f, err := os.Open(cfg.Topology.Scenario)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	var opts []core.Option
	if cfg.Topology.Seed != 0 {
		opts = append(opts, core.WithSeed(cfg.Topology.Seed))
	}
	return core.LoadScenario(f, opts...)
}

func serveMetrics(addr string, handler http.Handler, log logging.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
