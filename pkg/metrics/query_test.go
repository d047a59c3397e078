package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrometheus serves the query API with canned vector results keyed by
// substrings of the PromQL expression.
func fakePrometheus(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.FormValue("query")

		sample := func(labels, value string) string {
			return fmt.Sprintf(`{"metric":{%s},"value":[1693000000,"%s"]}`, labels, value)
		}

		var results []string
		switch {
		case strings.Contains(query, "relief_tool_duration_seconds_sum"):
			results = []string{
				sample(`"tool":"search"`, "0.5"),
				sample(`"tool":"allocate"`, "0.25"),
			}
		case strings.Contains(query, `outcome="threshold"`):
			results = []string{sample("", "3")}
		case strings.Contains(query, "relief_runs_total"):
			results = []string{sample("", "7")}
		case strings.Contains(query, "relief_iterations_total"):
			results = []string{sample("", "11")}
		case strings.Contains(query, "relief_effectiveness_score_sum"):
			results = []string{sample("", "0.42")}
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[%s]}}`,
			strings.Join(results, ","))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetRunSummary(t *testing.T) {
	prom := fakePrometheus(t)

	q, err := NewQueryService(prom.URL)
	require.NoError(t, err)

	summary, err := q.GetRunSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), summary.Runs)
	assert.Equal(t, int64(3), summary.ThresholdStops)
	assert.Equal(t, int64(11), summary.Iterations)
	assert.InDelta(t, 0.42, summary.AvgScore, 1e-9)
}

func TestGetToolDurations(t *testing.T) {
	prom := fakePrometheus(t)

	q, err := NewQueryService(prom.URL)
	require.NoError(t, err)

	durations, err := q.GetToolDurations(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.5, durations["search"], 1e-9)
	assert.InDelta(t, 0.25, durations["allocate"], 1e-9)
}

func TestGetRunSummaryEmptyServer(t *testing.T) {
	// No recorded samples: every query returns an empty vector.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
	}))
	defer server.Close()

	q, err := NewQueryService(server.URL)
	require.NoError(t, err)

	summary, err := q.GetRunSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Runs)
	assert.Equal(t, 0.0, summary.AvgScore)
}
