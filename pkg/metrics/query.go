package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// RunSummary represents aggregated run metrics scraped by a Prometheus server.
type RunSummary struct {
	Runs           int64   `json:"runs"`
	ThresholdStops int64   `json:"threshold_stops"`
	Iterations     int64   `json:"iterations"`
	AvgScore       float64 `json:"avg_score"`
}

// QueryService provides methods to query run metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetRunSummary retrieves aggregated run counters and the mean effectiveness
// score across all recorded iterations.
func (q *QueryService) GetRunSummary(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{}

	runsResult, _, err := q.queryAPI.Query(ctx, `sum(relief_runs_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query run count: %w", err)
	}
	if vector, ok := runsResult.(model.Vector); ok && len(vector) > 0 {
		summary.Runs = int64(vector[0].Value)
	}

	thresholdResult, _, err := q.queryAPI.Query(ctx, `sum(relief_runs_total{outcome="threshold"})`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query threshold stops: %w", err)
	}
	if vector, ok := thresholdResult.(model.Vector); ok && len(vector) > 0 {
		summary.ThresholdStops = int64(vector[0].Value)
	}

	iterationsResult, _, err := q.queryAPI.Query(ctx, `sum(relief_iterations_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query iteration count: %w", err)
	}
	if vector, ok := iterationsResult.(model.Vector); ok && len(vector) > 0 {
		summary.Iterations = int64(vector[0].Value)
	}

	avgQuery := `sum(relief_effectiveness_score_sum) / sum(relief_effectiveness_score_count)`
	avgResult, _, err := q.queryAPI.Query(ctx, avgQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query average score: %w", err)
	}
	if vector, ok := avgResult.(model.Vector); ok && len(vector) > 0 {
		summary.AvgScore = float64(vector[0].Value)
	}

	return summary, nil
}

// GetToolDurations retrieves the mean duration per tool from the tool
// duration histogram.
func (q *QueryService) GetToolDurations(ctx context.Context) (map[string]float64, error) {
	query := `sum by (tool) (relief_tool_duration_seconds_sum) / sum by (tool) (relief_tool_duration_seconds_count)`
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query tool durations: %w", err)
	}

	durations := make(map[string]float64)
	if vector, ok := result.(model.Vector); ok {
		for _, sample := range vector {
			if tool, ok := sample.Metric["tool"]; ok {
				durations[string(tool)] = float64(sample.Value)
			}
		}
	}
	return durations, nil
}
