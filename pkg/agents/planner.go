package agents

import (
	"context"
	"fmt"

	"relieforch/pkg/bus"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
)

// PlanSteps is the fixed pipeline plan. The plan content is logged for
// operators; later stages never consume it programmatically.
func PlanSteps() []string {
	return []string{"retrieve", "allocate", "evaluate"}
}

// Planner produces the fixed three-step plan and announces it on the bus.
type Planner struct {
	Base
	advisor *Advisor
}

// NewPlanner creates a planner. advisor may be nil; when set, plan messages
// carry an LLM-generated advisory note but the plan itself never changes.
func NewPlanner(b *bus.Bus, mem *memory.SessionMemory, advisor *Advisor) *Planner {
	return &Planner{
		Base:    NewBase("planner", proto.RolePlanner, b, mem),
		advisor: advisor,
	}
}

// Act returns the plan steps and sends exactly one message describing them.
func (p *Planner) Act(ctx context.Context, goal string) ([]string, error) {
	steps := PlanSteps()
	content := fmt.Sprintf("Plan created for goal '%s' -> %v", goal, steps)

	if p.advisor != nil {
		note, err := p.advisor.Narrate(ctx, goal, steps)
		if err != nil {
			// Advisory generation is best-effort; a failed LLM call never
			// fails the plan.
			p.Logger().Warn("plan advisory unavailable: %v", err)
		} else if note != "" {
			content = fmt.Sprintf("%s advisory: %s", content, note)
		}
	}

	p.Send(content, nil)
	return steps, nil
}
