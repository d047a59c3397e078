package tools

import (
	"context"
	"fmt"
	"time"

	"relieforch/pkg/proto"
)

// WithSearchTimeout wraps a SearchTool so a call that does not return within
// the deadline fails the run instead of hanging it.
func WithSearchTimeout(tool SearchTool, timeout time.Duration) SearchTool {
	return &searchTimeout{tool: tool, timeout: timeout}
}

// WithAllocateTimeout wraps an AllocationTool with the same deadline policy.
func WithAllocateTimeout(tool AllocationTool, timeout time.Duration) AllocationTool {
	return &allocateTimeout{tool: tool, timeout: timeout}
}

type searchTimeout struct {
	tool    SearchTool
	timeout time.Duration
}

type searchOutcome struct {
	report *proto.SituationReport
	err    error
}

func (s *searchTimeout) Search(ctx context.Context, query string) (*proto.SituationReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan searchOutcome, 1)
	go func() {
		report, err := s.tool.Search(ctx, query)
		done <- searchOutcome{report: report, err: err}
	}()

	select {
	case out := <-done:
		return out.report, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("search tool timed out after %s: %w", s.timeout, ctx.Err())
	}
}

type allocateTimeout struct {
	tool    AllocationTool
	timeout time.Duration
}

type allocateOutcome struct {
	result *proto.AllocationResult
	err    error
}

func (a *allocateTimeout) Allocate(ctx context.Context, demands []proto.Demand, supply proto.Supply) (*proto.AllocationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan allocateOutcome, 1)
	go func() {
		result, err := a.tool.Allocate(ctx, demands, supply)
		done <- allocateOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("allocation tool timed out after %s: %w", a.timeout, ctx.Err())
	}
}
