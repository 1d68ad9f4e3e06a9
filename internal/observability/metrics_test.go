package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRPCCollector(reg)
	if err != nil {
		t.Fatalf("NewRPCCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/meshrouter.v1.RouterService/Route"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		time.Sleep(time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("RouterService", "Route", "OK")); got != 1 {
		t.Fatalf("mesh_rpc_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "mesh_rpc_request_duration_seconds", map[string]string{
		"service": "RouterService",
		"method":  "Route",
	}); count != 1 {
		t.Fatalf("mesh_rpc_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRPCCollector(reg)
	if err != nil {
		t.Fatalf("NewRPCCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/meshrouter.v1.RouterService/FailNode"}
	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.FailedPrecondition, "all dead")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("RouterService", "FailNode", "FailedPrecondition")); got != 1 {
		t.Fatalf("error label = %v, want 1", got)
	}
}

func TestCollectorsReuseExistingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRoutingCollector(reg)
	if err != nil {
		t.Fatalf("NewRoutingCollector: %v", err)
	}
	second, err := NewRoutingCollector(reg)
	if err != nil {
		t.Fatalf("second NewRoutingCollector: %v", err)
	}
	first.IncNodeFailures()
	if got := testutil.ToFloat64(second.NodeFailures); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}

	clash := prometheus.NewGauge(prometheus.GaugeOpts{Name: "mesh_rpc_requests_total", Help: "clash"})
	reg2 := prometheus.NewRegistry()
	reg2.MustRegister(clash)
	if _, err := NewRPCCollector(reg2); err == nil {
		t.Fatalf("expected incompatible registration error")
	}
}

func TestRoutingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewRoutingCollector(reg)
	if err != nil {
		t.Fatalf("NewRoutingCollector: %v", err)
	}

	c.ObserveRoute("energy", OutcomeOK, time.Millisecond, 2, 2.21)
	c.ObserveRoute("energy", OutcomeNoRoute, time.Millisecond, 0, 0)
	c.AddBatteryDrain(6)
	c.AddBatteryDrain(0)
	c.SetMeshCounts(7, 3, 12)

	if got := testutil.ToFloat64(c.RouteRequests.WithLabelValues("energy", OutcomeOK)); got != 1 {
		t.Fatalf("ok routes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.RouteRequests.WithLabelValues("energy", OutcomeNoRoute)); got != 1 {
		t.Fatalf("no_route routes = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "mesh_route_hops", map[string]string{"objective": "energy"}); count != 1 {
		t.Fatalf("mesh_route_hops sample_count = %d, want 1", count)
	}
	if count := histogramSampleCount(t, reg, "mesh_route_computation_duration_seconds", map[string]string{"objective": "energy"}); count != 2 {
		t.Fatalf("duration sample_count = %d, want 2", count)
	}
	if got := testutil.ToFloat64(c.BatteryDrain); got != 6 {
		t.Fatalf("drain = %v, want 6", got)
	}
	if testutil.ToFloat64(c.NodesAlive) != 7 || testutil.ToFloat64(c.NodesDead) != 3 || testutil.ToFloat64(c.Edges) != 12 {
		t.Fatalf("gauges not set")
	}

	var nilCollector *RoutingCollector
	nilCollector.ObserveRoute("distance", OutcomeOK, 0, 1, 1)
	nilCollector.SetMeshCounts(1, 1, 1)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	rpc, err := NewRPCCollector(reg)
	if err != nil {
		t.Fatalf("NewRPCCollector: %v", err)
	}
	routes, err := NewRoutingCollector(reg)
	if err != nil {
		t.Fatalf("NewRoutingCollector: %v", err)
	}
	routes.SetMeshCounts(4, 1, 5)
	rpc.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()

	rr := httptest.NewRecorder()
	rpc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"mesh_rpc_requests_total",
		"mesh_nodes_alive 4",
		"mesh_nodes_dead 1",
		"mesh_edges 5",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := map[string][2]string{
		"/meshrouter.v1.RouterService/Route": {"RouterService", "Route"},
		"":                                   {"unknown", "unknown"},
		"bogus":                              {"unknown", "unknown"},
		"/Svc/":                              {"Svc", "unknown"},
	}
	for in, want := range cases {
		s, m := SplitMethod(in)
		if s != want[0] || m != want[1] {
			t.Fatalf("SplitMethod(%q) = %q, %q, want %q, %q", in, s, m, want[0], want[1])
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
