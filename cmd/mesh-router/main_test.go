package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/mesh-energy-router/internal/config"
	"github.com/signalsfoundry/mesh-energy-router/internal/logging"
	"github.com/signalsfoundry/mesh-energy-router/internal/nbi"
)

func TestRouterServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	cfg := config.Default()
	cfg.Topology.Nodes = 12
	cfg.Topology.Seed = 3
	cfg.Server.MetricsAddress = ""
	cfg.Logging.Level = "warn"

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: nbi.ServiceName}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("health Check: %v", err)
	}
	if hc.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v, want SERVING", hc.GetStatus())
	}

	client := nbi.NewRouterClient(conn)
	resp, err := client.GetStatus(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if n := resp.GetFields()["nodes"].GetNumberValue(); n != 12 {
		t.Fatalf("nodes = %v, want 12", n)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not exit after cancel")
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	if err := os.WriteFile(path, []byte("topology:\n  nodes: 7\nrouting:\n  objective: distance\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadConfig(path, func(c *config.Config) { c.Topology.Seed = 11 })
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Topology.Nodes != 7 || cfg.Topology.Seed != 11 || cfg.Routing.Objective != "distance" {
		t.Fatalf("cfg = %+v", cfg.Topology)
	}

	if _, err := loadConfig(path, func(c *config.Config) { c.Topology.Nodes = 0 }); err == nil {
		t.Fatalf("expected validation error for zero nodes")
	}
}

func TestBuildTopologyFromScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.json")
	doc := `{"nodes":[{"id":0},{"id":1},{"id":2,"energy":50}],"edges":[{"a":0,"b":1,"distance":3}]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := config.Default()
	cfg.Topology.Scenario = path

	topo, err := buildTopology(cfg)
	if err != nil {
		t.Fatalf("buildTopology: %v", err)
	}
	if topo.NodeCount() != 3 || topo.EdgeCount() != 1 {
		t.Fatalf("nodes=%d edges=%d", topo.NodeCount(), topo.EdgeCount())
	}

	cfg.Topology.Scenario = filepath.Join(dir, "missing.json")
	if _, err := buildTopology(cfg); err == nil {
		t.Fatalf("expected error for missing scenario file")
	}
}
