package agents

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"relieforch/pkg/bus"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
)

// scoreEpsilon keeps the effectiveness ratio defined when both allocated and
// remaining are zero.
const scoreEpsilon = 1e-4

// Evaluation scores an allocation outcome. Its score is the sole loop
// control signal.
type Evaluation struct {
	Base
}

func NewEvaluation(b *bus.Bus, mem *memory.SessionMemory) *Evaluation {
	return &Evaluation{
		Base: NewBase("evaluation", proto.RoleEvaluation, b, mem),
	}
}

// Act computes allocated / (allocated + remaining + epsilon), rounded to two
// decimal places, and reports it.
func (e *Evaluation) Act(allocation *proto.AllocationResult) (*proto.Evaluation, error) {
	allocated := len(allocation.Allocation)
	remaining := allocation.Remaining.Total()

	score := float64(allocated) / (float64(allocated) + float64(remaining) + scoreEpsilon)
	rounded := math.Round(score*100) / 100

	result := &proto.Evaluation{
		EffectivenessScore: rounded,
		Allocated:          allocated,
		RemainingSupply:    allocation.Remaining,
	}

	e.Send(fmt.Sprintf("Evaluation score=%s", formatScore(rounded)), nil)
	return result, nil
}

// formatScore renders a score with at least one decimal, so a full score
// reads "1.0" rather than "1" in the transcript.
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
