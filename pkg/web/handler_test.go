package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koaf/server-benchmark/pkg/bench"
	"github.com/koaf/server-benchmark/pkg/metrics"
	"github.com/koaf/server-benchmark/pkg/store"
	"github.com/koaf/server-benchmark/pkg/sysinfo"
)

type stubAdapter struct {
	name    string
	display string
}

func (a *stubAdapter) Name() string    { return a.name }
func (a *stubAdapter) Display() string { return a.display }

func (a *stubAdapter) Run(ctx context.Context, status bench.StatusFunc) bench.Result {
	return bench.Completed(map[string]float64{"score": 42})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "results.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	adapters := []bench.Adapter{
		&stubAdapter{name: "cpu", display: "CPU"},
		&stubAdapter{name: "memory", display: "Memory"},
		&stubAdapter{name: "disk", display: "Disk"},
		&stubAdapter{name: "network", display: "Network"},
	}
	runner := bench.NewRunner(log, func() sysinfo.Info {
		return sysinfo.Info{Hostname: "test-host"}
	}, adapters, time.Minute)

	exporter := metrics.NewExporter()
	runner.OnComplete(exporter.Hook())

	srv := httptest.NewServer(NewHandler(log, runner, st, exporter))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: decode: %v", url, err)
	}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func waitRunIdle(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		var status struct {
			Running bool `json:"running"`
		}
		getJSON(t, baseURL+"/api/status", &status)
		if !status.Running {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("run still active after 10s")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIndexServesDashboard(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Server Benchmark Comparison") {
		t.Error("dashboard page missing title")
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/no/such/page")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMethodMismatchNotFound(t *testing.T) {
	srv := newTestServer(t)

	// GET on a POST-only route
	resp, err := http.Get(srv.URL + "/api/save")
	if err != nil {
		t.Fatalf("GET /api/save: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /api/save status = %d, want 404", resp.StatusCode)
	}

	// POST on a GET-only route
	resp = postJSON(t, srv.URL+"/api/status", "{}")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("POST /api/status status = %d, want 404", resp.StatusCode)
	}
}

func TestStatusWhileIdle(t *testing.T) {
	srv := newTestServer(t)

	var status struct {
		Running  bool `json:"running"`
		Progress struct {
			TotalTests int `json:"total_tests"`
		} `json:"progress"`
	}
	getJSON(t, srv.URL+"/api/status", &status)

	if status.Running {
		t.Error("running = true on a fresh server")
	}
	if status.Progress.TotalTests != 5 {
		t.Errorf("total_tests = %d, want 5", status.Progress.TotalTests)
	}
}

func TestHistoryStartsEmptyArray(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("empty history = %s, want []", got)
	}
	if cors := resp.Header.Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", cors)
	}
}

func TestSaveRunPersistsHistory(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/save", `{"custom_name":"node-a"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/save status = %d", resp.StatusCode)
	}
	var ack map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode save response: %v", err)
	}
	if ack["status"] != "started" {
		t.Errorf("save response = %v, want status started", ack)
	}

	waitRunIdle(t, srv.URL)

	var history []struct {
		ID         string                  `json:"id"`
		Timestamp  string                  `json:"timestamp"`
		CustomName string                  `json:"custom_name"`
		Benchmarks map[string]bench.Result `json:"benchmarks"`
		SystemInfo sysinfo.Info            `json:"system_info"`
	}
	getJSON(t, srv.URL+"/api/history", &history)

	if len(history) != 1 {
		t.Fatalf("history holds %d records, want 1", len(history))
	}
	rec := history[0]
	if rec.ID == "" || rec.Timestamp == "" {
		t.Errorf("record missing id or timestamp: %+v", rec)
	}
	if rec.CustomName != "node-a" {
		t.Errorf("custom_name = %q, want node-a", rec.CustomName)
	}
	if rec.SystemInfo.Hostname != "test-host" {
		t.Errorf("hostname = %q, want test-host", rec.SystemInfo.Hostname)
	}
	for _, name := range []string{"cpu", "memory", "disk", "network"} {
		if _, present := rec.Benchmarks[name]; !present {
			t.Errorf("history record missing %s slot", name)
		}
	}
}

func TestBenchmarkEndpointRunsWithoutSaving(t *testing.T) {
	srv := newTestServer(t)

	var out struct {
		Running bool           `json:"running"`
		Results bench.Envelope `json:"results"`
	}
	getJSON(t, srv.URL+"/api/benchmark", &out)

	waitRunIdle(t, srv.URL)

	var history []json.RawMessage
	getJSON(t, srv.URL+"/api/history", &history)
	if len(history) != 0 {
		t.Errorf("unsaved run landed in history: %d records", len(history))
	}
}

func TestDeleteAndClear(t *testing.T) {
	srv := newTestServer(t)

	for _, name := range []string{"a", "b"} {
		postJSON(t, srv.URL+"/api/save", `{"custom_name":"`+name+`"}`)
		waitRunIdle(t, srv.URL)
	}

	var history []struct {
		ID string `json:"id"`
	}
	getJSON(t, srv.URL+"/api/history", &history)
	if len(history) != 2 {
		t.Fatalf("history holds %d records, want 2", len(history))
	}

	resp := postJSON(t, srv.URL+"/api/delete", `{"id":"`+history[0].ID+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/delete status = %d", resp.StatusCode)
	}
	getJSON(t, srv.URL+"/api/history", &history)
	if len(history) != 1 {
		t.Errorf("history holds %d records after delete, want 1", len(history))
	}

	resp = postJSON(t, srv.URL+"/api/clear", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/clear status = %d", resp.StatusCode)
	}
	getJSON(t, srv.URL+"/api/history", &history)
	if len(history) != 0 {
		t.Errorf("history holds %d records after clear, want 0", len(history))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.URL+"/api/save", `{"custom_name":"m"}`)
	waitRunIdle(t, srv.URL)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "benchmark_runs_total 1") {
		t.Errorf("metrics output missing run counter:\n%s", body)
	}
}
