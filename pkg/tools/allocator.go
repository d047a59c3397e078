package tools

import (
	"context"

	"relieforch/pkg/proto"
)

// GreedyAllocator is the reference allocation policy: a single pass over
// demands in input order, one unit per demand, skipping demands whose need
// is exhausted. It never sorts, backtracks, or partially allocates a unit.
// Severity is deliberately ignored.
type GreedyAllocator struct{}

func NewGreedyAllocator() *GreedyAllocator {
	return &GreedyAllocator{}
}

// Allocate implements AllocationTool. The input supply is never mutated; the
// returned remaining map is the post-decrement copy.
func (a *GreedyAllocator) Allocate(ctx context.Context, demands []proto.Demand, supply proto.Supply) (*proto.AllocationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	remaining := supply.Clone()
	allocation := make([]proto.Grant, 0, len(demands))
	for _, demand := range demands {
		if remaining[demand.Need] > 0 {
			remaining[demand.Need]--
			allocation = append(allocation, proto.Grant{
				Location:  demand.Title,
				Allocated: demand.Need,
			})
		}
	}

	return &proto.AllocationResult{
		Allocation: allocation,
		Remaining:  remaining,
	}, nil
}
