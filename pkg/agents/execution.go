package agents

import (
	"context"
	"fmt"

	"relieforch/pkg/bus"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
	"relieforch/pkg/tools"
)

// Execution turns situation reports into allocations against a supply copy.
type Execution struct {
	Base
	allocator tools.AllocationTool
}

func NewExecution(b *bus.Bus, mem *memory.SessionMemory, allocator tools.AllocationTool) *Execution {
	return &Execution{
		Base:      NewBase("execution", proto.RoleExecution, b, mem),
		allocator: allocator,
	}
}

// Act allocates the report's demands against the given supply. The caller
// passes a copy; allocation decisions here are invisible to later
// iterations.
func (e *Execution) Act(ctx context.Context, situational *proto.SituationReport, supply proto.Supply) (*proto.AllocationResult, error) {
	var demands []proto.Demand
	if situational != nil {
		demands = situational.Results
	}

	result, err := e.allocator.Allocate(ctx, demands, supply)
	if err != nil {
		return nil, fmt.Errorf("allocation tool failed: %w", err)
	}

	e.Send(fmt.Sprintf("Allocated %d resources", len(result.Allocation)), nil)
	return result, nil
}
