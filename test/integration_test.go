package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parcelops/fleetsim/api"
	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/history"
	"github.com/parcelops/fleetsim/core/kpi"
	coremetrics "github.com/parcelops/fleetsim/core/metrics"
	"github.com/parcelops/fleetsim/core/sim"
	"github.com/parcelops/fleetsim/infra/logger"
	"github.com/parcelops/fleetsim/infra/metrics"
	"github.com/parcelops/fleetsim/internal/eventbus"
	"github.com/parcelops/fleetsim/test/util"
)

// ringBuilder ignores the map location and returns a small ring around the
// lowest node, which the engine draws as depot under a fixed seed.
func ringBuilder(string) (graph.Provider, error) {
	g := graph.NewMockProvider()
	g.AddEdge(1, 2, 10)
	g.AddEdge(2, 3, 10)
	g.AddEdge(3, 4, 10)
	g.AddEdge(4, 1, 10)
	for i, n := range []graph.NodeID{1, 2, 3, 4} {
		g.SetCoord(n, 48.85+float64(i)*0.001, 2.35)
	}
	return g, nil
}

type stack struct {
	api     *httptest.Server
	metrics *httptest.Server
	mgr     *sim.Manager
}

// newStack wires the full pipeline: manager -> event bus -> metrics
// collector -> Prometheus registry, with the REST surface in front.
func newStack(t *testing.T) *stack {
	t.Helper()
	cfg := sim.Config{
		AgentCount:        2,
		PackageCount:      4,
		Capacity:          2,
		MaxBattery:        10000,
		DrainPerUnit:      1,
		BufferPercent:     0.1,
		Seed:              7,
		StepInterval:      time.Millisecond,
		PausePollInterval: time.Millisecond,
		StopWait:          2 * time.Second,
	}

	hist, err := history.NewJSONLStore(filepath.Join(t.TempDir(), "history.jsonl"))
	if err != nil {
		t.Fatalf("history store: %v", err)
	}
	bus := eventbus.New()
	mgr, err := sim.NewManager(ringBuilder, cfg, logger.NopLogger{}, bus, hist, kpi.NewMemoryStore())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	metrics.StartEventCollector(ctx, bus, sink)

	srv, err := api.NewServer(mgr, api.Config{Token: "itest-token"}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("api server: %v", err)
	}

	st := &stack{
		api:     httptest.NewServer(srv.Router()),
		metrics: httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		mgr:     mgr,
	}
	t.Cleanup(func() {
		mgr.Stop()
		cancel()
		st.api.Close()
		st.metrics.Close()
		bus.Close()
	})
	return st
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func waitForRunEnd(t *testing.T, baseURL string) sim.Status {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/status")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		var st sim.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		_ = resp.Body.Close()
		if st.RunID != "" && !st.Running {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return sim.Status{}
}

func TestRunPipelineEndToEnd(t *testing.T) {
	st := newStack(t)

	resp := postJSON(t, st.api.URL+"/api/start", map[string]any{"seed": 7})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	var started struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	_ = resp.Body.Close()
	if started.RunID == "" {
		t.Fatal("expected a run id")
	}

	status := waitForRunEnd(t, st.api.URL)
	if status.Fault != "" {
		t.Fatalf("run faulted: %s", status.Fault)
	}
	if status.CompletedCount != status.TotalCount {
		t.Fatalf("expected all %d packages delivered, got %d", status.TotalCount, status.CompletedCount)
	}

	// The collector runs async behind the bus; give the counters a moment.
	ctx, cancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer cancel()
	if err := util.WaitForMetric(ctx, st.metrics.URL+"/metrics", "fleetsim_deliveries_total 4"); err != nil {
		t.Fatalf("delivery counter: %v", err)
	}
	if err := util.WaitForMetric(ctx, st.metrics.URL+"/metrics", "fleetsim_ticks_total"); err != nil {
		t.Fatalf("tick counter: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, st.api.URL+"/api/history?kind=delivery", nil)
	req.Header.Set("Authorization", "Bearer itest-token")
	histResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer func() { _ = histResp.Body.Close() }()
	if histResp.StatusCode != http.StatusOK {
		t.Fatalf("history: status %d", histResp.StatusCode)
	}
	var records []history.Record
	if err := json.NewDecoder(histResp.Body).Decode(&records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 delivery records, got %d", len(records))
	}

	deliveries := 0
	for _, id := range []string{"agent-01", "agent-02"} {
		resp, err := http.Get(fmt.Sprintf("%s/api/agents/%s/kpis", st.api.URL, id))
		if err != nil {
			t.Fatalf("kpis: %v", err)
		}
		var recs []kpi.Record
		if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
			t.Fatalf("decode kpis: %v", err)
		}
		_ = resp.Body.Close()
		for _, r := range recs {
			deliveries += r.Deliveries
		}
	}
	if deliveries != 4 {
		t.Fatalf("expected 4 deliveries across agent KPIs, got %d", deliveries)
	}
}

func TestOrderInjectionMidRun(t *testing.T) {
	st := newStack(t)

	resp := postJSON(t, st.api.URL+"/api/start", map[string]any{"seed": 11})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	added, err := st.mgr.AddOrders([]graph.NodeID{3}, 0)
	if err != nil {
		// The run may already be over at millisecond ticks.
		if status := waitForRunEnd(t, st.api.URL); status.Fault != "" {
			t.Fatalf("run faulted: %s", status.Fault)
		}
		return
	}
	if added != 1 {
		t.Fatalf("expected 1 order added, got %d", added)
	}

	status := waitForRunEnd(t, st.api.URL)
	if status.Fault != "" {
		t.Fatalf("run faulted: %s", status.Fault)
	}
	if status.TotalCount != 5 {
		t.Fatalf("expected 5 tasks after injection, got %d", status.TotalCount)
	}
	if status.CompletedCount != 5 {
		t.Fatalf("expected all 5 packages delivered, got %d", status.CompletedCount)
	}
}
