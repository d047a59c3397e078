// Package tools defines the external tool capabilities consumed by agents
// and provides the reference implementations: a scenario-backed situation
// search and the greedy first-come-first-served allocator.
package tools

import (
	"context"

	"relieforch/pkg/proto"
)

// SearchTool produces a situation report for a query. Implementations may be
// synthetic generators or live lookups; callers must tolerate any ordering
// and any result length, including empty.
type SearchTool interface {
	Search(ctx context.Context, query string) (*proto.SituationReport, error)
}

// AllocationTool assigns supply units to demands.
type AllocationTool interface {
	Allocate(ctx context.Context, demands []proto.Demand, supply proto.Supply) (*proto.AllocationResult, error)
}
