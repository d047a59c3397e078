package webui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relieforch/pkg/bus"
	"relieforch/pkg/config"
	"relieforch/pkg/memory"
	"relieforch/pkg/metrics"
	"relieforch/pkg/orch"
	"relieforch/pkg/persistence"
	"relieforch/pkg/proto"
	"relieforch/pkg/testkit"
)

func newTestServer(t *testing.T, store *persistence.Store) *Server {
	t.Helper()

	b := bus.New()
	mem := memory.New(memory.DefaultCapacity)
	search := testkit.StaticSearch(
		proto.Demand{Title: "Site A", Need: "water", Severity: 5},
		proto.Demand{Title: "Site B", Need: "medical", Severity: 7},
	)
	orchestrator := orch.New(b, mem, search, testkit.PassthroughAllocator())

	return NewServer(orchestrator, b, mem, store, nil, config.Default())
}

func serveRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestOrchestrateEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	body, err := json.Marshal(OrchestrateRequest{Goal: "deliver water"})
	require.NoError(t, err)

	rec := serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report proto.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.GreaterOrEqual(t, report.Loop, 1)
	assert.NotNil(t, report.Evaluation)
	assert.Contains(t, report.ConversationSummary, "deliver water")
	assert.Contains(t, report.ConversationSummary, "[planner]")
}

func TestOrchestrateRequestOverrides(t *testing.T) {
	s := newTestServer(t, nil)

	// Threshold of 1.0 cannot be reached with leftover supply, so the run
	// exhausts the requested iteration budget.
	body, err := json.Marshal(OrchestrateRequest{
		Goal:          "storm response",
		Supply:        proto.Supply{"water": 5, "medical": 5},
		MaxIterations: 3,
		Threshold:     1.0,
	})
	require.NoError(t, err)

	rec := serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report proto.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Loop)
}

func TestOrchestrateValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing goal should be rejected")

	rec = serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := json.Marshal(OrchestrateRequest{Goal: "bad supply", Supply: proto.Supply{"water": -1}})
	require.NoError(t, err)
	rec = serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "negative supply should map to 400")

	rec = serveRequest(s, httptest.NewRequest(http.MethodGet, "/orchestrate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serveRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "idle", health["state"])

	agents, ok := health["agents"].([]any)
	require.True(t, ok)
	assert.Len(t, agents, 5)
}

func TestRunsEndpoint(t *testing.T) {
	store, err := persistence.Open(filepath.Join(t.TempDir(), "relief.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	s := newTestServer(t, store)

	body, err := json.Marshal(OrchestrateRequest{Goal: "flood relief"})
	require.NoError(t, err)
	rec := serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serveRequest(s, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []persistence.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "flood relief", runs[0].Goal)
}

func TestRunsWithoutStore(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serveRequest(s, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMessagesEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	body, err := json.Marshal(OrchestrateRequest{Goal: "quake response"})
	require.NoError(t, err)
	rec := serveRequest(s, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serveRequest(s, httptest.NewRequest(http.MethodGet, "/messages?limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []*proto.ReliefMsg
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	assert.Len(t, messages, 3)

	rec = serveRequest(s, httptest.NewRequest(http.MethodGet, "/messages?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serveRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "relief-orchestrator", info["service"])

	rec = serveRequest(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	// Every PromQL query gets the same single-sample vector back; the
	// endpoint shape is what matters here, aggregation is covered in
	// pkg/metrics.
	prom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[{"metric":{"tool":"search"},"value":[1693000000,"5"]}]}}`))
	}))
	defer prom.Close()

	cfg := config.Default()
	cfg.Metrics.PrometheusURL = prom.URL

	b := bus.New()
	mem := memory.New(memory.DefaultCapacity)
	orchestrator := orch.New(b, mem, testkit.StaticSearch(), testkit.PassthroughAllocator())
	s := NewServer(orchestrator, b, mem, nil, nil, cfg)

	rec := serveRequest(s, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats struct {
		Summary       metrics.RunSummary `json:"summary"`
		ToolDurations map[string]float64 `json:"tool_durations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(5), stats.Summary.Runs)
	assert.InDelta(t, 5.0, stats.ToolDurations["search"], 1e-9)
}

func TestStatsWithoutPrometheus(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serveRequest(s, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serveRequest(s, httptest.NewRequest(http.MethodGet, "/logs?since=not-a-time", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveRequest(s, httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
