package testkit

import (
	"context"

	"relieforch/pkg/proto"
)

// staticSearch returns the same demand list on every call.
type staticSearch struct {
	results []proto.Demand
}

func (s *staticSearch) Search(_ context.Context, query string) (*proto.SituationReport, error) {
	results := make([]proto.Demand, len(s.results))
	copy(results, s.results)
	return &proto.SituationReport{Query: query, Results: results}, nil
}

// StaticSearch builds a deterministic search tool returning exactly the
// given demands for any query.
func StaticSearch(demands ...proto.Demand) *staticSearch { //nolint:revive // unexported return keeps the mock opaque
	return &staticSearch{results: demands}
}

// failingSearch always returns its configured error.
type failingSearch struct {
	err error
}

func (s *failingSearch) Search(context.Context, string) (*proto.SituationReport, error) {
	return nil, s.err
}

// FailingSearch builds a search tool that fails every call.
func FailingSearch(err error) *failingSearch { //nolint:revive // unexported return keeps the mock opaque
	return &failingSearch{err: err}
}

// passthroughAllocator applies the reference greedy policy without the tools
// package, so agent tests stay decoupled from the real implementation.
type passthroughAllocator struct{}

func (passthroughAllocator) Allocate(_ context.Context, demands []proto.Demand, supply proto.Supply) (*proto.AllocationResult, error) {
	remaining := supply.Clone()
	allocation := make([]proto.Grant, 0, len(demands))
	for _, demand := range demands {
		if remaining[demand.Need] > 0 {
			remaining[demand.Need]--
			allocation = append(allocation, proto.Grant{Location: demand.Title, Allocated: demand.Need})
		}
	}
	return &proto.AllocationResult{Allocation: allocation, Remaining: remaining}, nil
}

// PassthroughAllocator builds an order-preserving greedy allocator mock.
func PassthroughAllocator() passthroughAllocator { //nolint:revive // unexported return keeps the mock opaque
	return passthroughAllocator{}
}

// failingAllocator always returns its configured error.
type failingAllocator struct {
	err error
}

func (a *failingAllocator) Allocate(context.Context, []proto.Demand, proto.Supply) (*proto.AllocationResult, error) {
	return nil, a.err
}

// FailingAllocator builds an allocation tool that fails every call.
func FailingAllocator(err error) *failingAllocator { //nolint:revive // unexported return keeps the mock opaque
	return &failingAllocator{err: err}
}
