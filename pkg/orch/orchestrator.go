// Package orch drives the fixed plan-retrieve-execute-evaluate loop over the
// relief agents until the effectiveness score clears the threshold or the
// iteration budget runs out.
package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"relieforch/pkg/agents"
	"relieforch/pkg/bus"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
	"relieforch/pkg/tools"
)

// Run defaults, matching the service-level configuration defaults.
const (
	DefaultMaxIterations = 2
	DefaultThreshold     = 0.7
)

// ErrInvalidInput marks run arguments rejected before the loop starts.
var ErrInvalidInput = errors.New("invalid input")

// State tracks where the orchestrator is in a run.
type State string

const (
	StateIdle     State = "idle"
	StatePlanning State = "planning"
	StateLooping  State = "looping"
	StateDone     State = "done"
)

// Observer receives run telemetry. Implementations must not block.
type Observer interface {
	ObserveTool(tool string, duration time.Duration)
	ObserveIteration(score float64)
	ObserveRun(outcome string, loops int, score float64)
}

// Run outcome labels reported to the Observer.
const (
	OutcomeThreshold = "threshold"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

// Orchestrator owns the run-level supply state and invokes the agents in
// fixed order. One run executes strictly sequentially; the shared bus and
// session memory are safe to reuse across runs, but concurrent runs against
// the same instance must be serialized by the caller.
type Orchestrator struct {
	agents.Base

	planner    *agents.Planner
	retrieval  *agents.Retrieval
	execution  *agents.Execution
	evaluation *agents.Evaluation

	bus      *bus.Bus
	memory   *memory.SessionMemory
	observer Observer

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	advisor  *agents.Advisor
	observer Observer
}

// WithAdvisor attaches an optional plan narration advisor.
func WithAdvisor(advisor *agents.Advisor) Option {
	return func(o *options) { o.advisor = advisor }
}

// WithObserver attaches run telemetry.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// New wires an orchestrator and its four agents over a shared bus and
// session memory.
func New(b *bus.Bus, mem *memory.SessionMemory, search tools.SearchTool, allocator tools.AllocationTool, opts ...Option) *Orchestrator {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Orchestrator{
		Base:       agents.NewBase("orchestrator", proto.RoleOrchestrator, b, mem),
		planner:    agents.NewPlanner(b, mem, cfg.advisor),
		retrieval:  agents.NewRetrieval(b, mem, search),
		execution:  agents.NewExecution(b, mem, allocator),
		evaluation: agents.NewEvaluation(b, mem),
		bus:        b,
		memory:     mem,
		observer:   cfg.observer,
		state:      StateIdle,
	}
}

// GetState returns the current run state for observability endpoints.
func (o *Orchestrator) GetState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
	o.Logger().Debug("state -> %s", state)
}

// AgentNames lists the agents participating in runs, orchestrator included.
func (o *Orchestrator) AgentNames() []string {
	return []string{o.planner.Name(), o.retrieval.Name(), o.execution.Name(), o.evaluation.Name(), o.Name()}
}

// Run executes one orchestration: plan once, then iterate retrieval,
// execution, and evaluation until the score clears threshold or
// maxIterations is exhausted. Tool failures abort the run with no partial
// report.
//
// Each iteration allocates against a fresh copy of the original supply, not
// the depleting remainder of prior iterations. Carrying remaining supply
// forward is a deliberate non-change; see DESIGN.md.
func (o *Orchestrator) Run(ctx context.Context, goal string, supply proto.Supply, maxIterations int, threshold float64) (*proto.Report, error) {
	if maxIterations <= 0 {
		return nil, fmt.Errorf("%w: maxIterations must be positive, got %d", ErrInvalidInput, maxIterations)
	}
	if err := supply.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	o.setState(StatePlanning)
	o.Send(fmt.Sprintf("Starting orchestration for goal='%s'", goal), nil)

	if _, err := o.planner.Act(ctx, goal); err != nil {
		return nil, o.fail(fmt.Errorf("planning failed: %w", err))
	}

	o.setState(StateLooping)
	report := &proto.Report{}
	outcome := OutcomeExhausted

	for loop := 1; loop <= maxIterations; loop++ {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(fmt.Errorf("run cancelled at loop %d: %w", loop, err))
		}

		// Context snapshot is logged for operators; agents only ever see
		// their explicit structured arguments.
		o.Send(fmt.Sprintf("Loop %d context=%s", loop, o.memory.Compact()), nil)

		start := time.Now()
		situational, err := o.retrieval.Act(ctx, goal)
		if err != nil {
			return nil, o.fail(fmt.Errorf("loop %d: %w", loop, err))
		}
		o.observeTool("search", time.Since(start))

		start = time.Now()
		allocation, err := o.execution.Act(ctx, situational, supply.Clone())
		if err != nil {
			return nil, o.fail(fmt.Errorf("loop %d: %w", loop, err))
		}
		o.observeTool("allocate", time.Since(start))

		evaluation, err := o.evaluation.Act(allocation)
		if err != nil {
			return nil, o.fail(fmt.Errorf("loop %d: %w", loop, err))
		}

		report = &proto.Report{
			Loop:        loop,
			Situational: situational,
			Allocation:  allocation,
			Evaluation:  evaluation,
		}
		if o.observer != nil {
			o.observer.ObserveIteration(evaluation.EffectivenessScore)
		}

		if evaluation.EffectivenessScore >= threshold {
			o.Send(fmt.Sprintf("Threshold reached loop=%d", loop), nil)
			outcome = OutcomeThreshold
			break
		}
	}

	o.setState(StateDone)
	o.Send("Orchestration complete", nil)
	report.ConversationSummary = o.bus.Summary()

	if o.observer != nil && report.Evaluation != nil {
		o.observer.ObserveRun(outcome, report.Loop, report.Evaluation.EffectivenessScore)
	}
	return report, nil
}

func (o *Orchestrator) fail(err error) error {
	o.setState(StateDone)
	if o.observer != nil {
		o.observer.ObserveRun(OutcomeError, 0, 0)
	}
	return err
}

func (o *Orchestrator) observeTool(tool string, duration time.Duration) {
	if o.observer != nil {
		o.observer.ObserveTool(tool, duration)
	}
}
