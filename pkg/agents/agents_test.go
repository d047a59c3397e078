package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relieforch/pkg/bus"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
	"relieforch/pkg/testkit"
)

func newHarness() (*bus.Bus, *memory.SessionMemory) {
	return bus.New(), memory.New(memory.DefaultCapacity)
}

func TestPlannerActSendsPlan(t *testing.T) {
	b, mem := newHarness()
	planner := NewPlanner(b, mem, nil)

	steps, err := planner.Act(context.Background(), "Flood relief allocation")
	require.NoError(t, err)
	assert.Equal(t, []string{"retrieve", "allocate", "evaluate"}, steps)

	require.Equal(t, 1, b.Len(), "one send per act")
	msg := b.Recent(1)[0]
	testkit.AssertRole(t, msg, proto.RolePlanner)
	testkit.AssertSender(t, msg, "planner")
	testkit.AssertContentContains(t, msg, "Plan created for goal 'Flood relief allocation'")
	assert.Equal(t, 1, mem.Len(), "send must reach session memory too")
}

func TestRetrievalActReportsCount(t *testing.T) {
	b, mem := newHarness()
	search := testkit.StaticSearch(
		proto.Demand{Title: "Site A", Need: "water", Severity: 4},
		proto.Demand{Title: "Site B", Need: "medical", Severity: 8},
	)
	retrieval := NewRetrieval(b, mem, search)

	report, err := retrieval.Act(context.Background(), "flood")
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)

	require.Equal(t, 1, b.Len())
	testkit.AssertContentContains(t, b.Recent(1)[0], "Retrieved 2 items")
}

func TestRetrievalActEmptyResultsStillSends(t *testing.T) {
	b, mem := newHarness()
	retrieval := NewRetrieval(b, mem, testkit.StaticSearch())

	report, err := retrieval.Act(context.Background(), "flood")
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	testkit.AssertContentContains(t, b.Recent(1)[0], "Retrieved 0 items")
}

func TestRetrievalActPropagatesToolFailure(t *testing.T) {
	b, mem := newHarness()
	retrieval := NewRetrieval(b, mem, testkit.FailingSearch(errors.New("upstream down")))

	_, err := retrieval.Act(context.Background(), "flood")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, 0, b.Len(), "a failed act produces no message")
}

func TestExecutionActAllocates(t *testing.T) {
	b, mem := newHarness()
	execution := NewExecution(b, mem, testkit.PassthroughAllocator())

	situational := &proto.SituationReport{
		Query: "flood",
		Results: []proto.Demand{
			{Title: "Site A", Need: "water"},
			{Title: "Site B", Need: "water"},
		},
	}

	result, err := execution.Act(context.Background(), situational, proto.Supply{"water": 1})
	require.NoError(t, err)
	require.Len(t, result.Allocation, 1)
	testkit.AssertContentContains(t, b.Recent(1)[0], "Allocated 1 resources")
}

func TestExecutionActNilSituational(t *testing.T) {
	b, mem := newHarness()
	execution := NewExecution(b, mem, testkit.PassthroughAllocator())

	result, err := execution.Act(context.Background(), nil, proto.Supply{"water": 2})
	require.NoError(t, err)
	assert.Empty(t, result.Allocation)
	testkit.AssertContentContains(t, b.Recent(1)[0], "Allocated 0 resources")
}

func TestEvaluationActScore(t *testing.T) {
	b, mem := newHarness()
	evaluation := NewEvaluation(b, mem)

	result, err := evaluation.Act(&proto.AllocationResult{
		Allocation: []proto.Grant{
			{Location: "Site A", Allocated: "water"},
			{Location: "Site B", Allocated: "water"},
			{Location: "Site C", Allocated: "water"},
		},
		Remaining: proto.Supply{"water": 1},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.75, result.EffectivenessScore, 1e-9)
	assert.Equal(t, 3, result.Allocated)
	testkit.AssertContentContains(t, b.Recent(1)[0], "Evaluation score=0.75")
}

func TestEvaluationActZeroEverything(t *testing.T) {
	b, mem := newHarness()
	evaluation := NewEvaluation(b, mem)

	result, err := evaluation.Act(&proto.AllocationResult{Remaining: proto.Supply{}})
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.EffectivenessScore, "epsilon keeps the ratio defined at zero")
	require.Equal(t, 1, b.Len())
	testkit.AssertContentContains(t, b.Recent(1)[0], "Evaluation score=0.0")
}

func TestEvaluationScoreWholeNumberFormatting(t *testing.T) {
	b, mem := newHarness()
	evaluation := NewEvaluation(b, mem)

	// Exact depletion rounds to a full score, which must read "1.0" in the
	// transcript, not "1".
	result, err := evaluation.Act(&proto.AllocationResult{
		Allocation: []proto.Grant{{Location: "Site A", Allocated: "water"}},
		Remaining:  proto.Supply{},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.EffectivenessScore)
	testkit.AssertContentContains(t, b.Recent(1)[0], "Evaluation score=1.0")
}

func TestEvaluationScoreStrictlyBelowOne(t *testing.T) {
	b, mem := newHarness()
	evaluation := NewEvaluation(b, mem)

	result, err := evaluation.Act(&proto.AllocationResult{
		Allocation: []proto.Grant{{Location: "Site A", Allocated: "water"}},
		Remaining:  proto.Supply{"water": 0},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, result.EffectivenessScore, 1.0)
	assert.Greater(t, result.EffectivenessScore, 0.9)
}

func TestNewAdvisorWithoutKey(t *testing.T) {
	assert.Nil(t, NewAdvisor("", DefaultAdvisorModel), "no API key disables the advisor")
	assert.NotNil(t, NewAdvisor("key", ""))
}
