package tools

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"relieforch/pkg/proto"
	"relieforch/pkg/scenario"
)

// Severity bounds for generated situation reports.
const (
	minSeverity = 1
	maxSeverity = 10
)

// ScenarioSearch is a synthetic SearchTool that reports every site of a
// scenario as a demand with a generated severity. The randomness source is
// injectable so tests can pin the sequence.
type ScenarioSearch struct {
	mu       sync.Mutex
	scenario *scenario.Scenario
	rng      *rand.Rand
}

// NewScenarioSearch creates a search tool over the given scenario. A nil rng
// seeds one from the wall clock.
func NewScenarioSearch(sc *scenario.Scenario, rng *rand.Rand) *ScenarioSearch {
	if sc == nil {
		sc = scenario.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ScenarioSearch{scenario: sc, rng: rng}
}

// Search implements SearchTool.
func (s *ScenarioSearch) Search(ctx context.Context, query string) (*proto.SituationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]proto.Demand, 0, len(s.scenario.Sites))
	for _, site := range s.scenario.Sites {
		results = append(results, proto.Demand{
			Title:    site.Title,
			Need:     site.Need,
			Severity: minSeverity + s.rng.Intn(maxSeverity-minSeverity+1),
		})
	}

	return &proto.SituationReport{Query: query, Results: results}, nil
}
