package agents

import (
	"context"
	"fmt"

	"relieforch/pkg/bus"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
	"relieforch/pkg/tools"
)

// Retrieval queries the search tool for the current situation.
type Retrieval struct {
	Base
	search tools.SearchTool
}

func NewRetrieval(b *bus.Bus, mem *memory.SessionMemory, search tools.SearchTool) *Retrieval {
	return &Retrieval{
		Base:   NewBase("retrieval", proto.RoleRetrieval, b, mem),
		search: search,
	}
}

// Act runs the search and reports the result count. Empty results are a
// valid outcome, not an error; tool failures propagate and fail the run.
func (r *Retrieval) Act(ctx context.Context, goal string) (*proto.SituationReport, error) {
	report, err := r.search.Search(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("search tool failed: %w", err)
	}

	r.Send(fmt.Sprintf("Retrieved %d items", len(report.Results)), nil)
	return report, nil
}
