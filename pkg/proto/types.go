package proto

import "fmt"

// Supply maps a resource kind (water, medical, food, ...) to a non-negative
// unit count.
type Supply map[string]int

// Clone returns an independent copy of the supply map.
func (s Supply) Clone() Supply {
	clone := make(Supply, len(s))
	for kind, count := range s {
		clone[kind] = count
	}
	return clone
}

// Total returns the sum of all unit counts.
func (s Supply) Total() int {
	total := 0
	for _, count := range s {
		total += count
	}
	return total
}

// Validate rejects negative unit counts.
func (s Supply) Validate() error {
	for kind, count := range s {
		if count < 0 {
			return fmt.Errorf("supply count for %q is negative: %d", kind, count)
		}
	}
	return nil
}

// Demand is one relief site reporting a need. Severity is context for
// operators only; allocation never consults it.
type Demand struct {
	Title    string `json:"title"`
	Need     string `json:"need"`
	Severity int    `json:"severity"`
}

// SituationReport is the search tool's answer for one query.
type SituationReport struct {
	Query   string   `json:"query"`
	Results []Demand `json:"results"`
}

// Grant records one unit of a resource kind assigned to a location.
type Grant struct {
	Location  string `json:"location"`
	Allocated string `json:"allocated"`
}

// AllocationResult is the allocator's output: grants in demand order and the
// post-decrement supply.
type AllocationResult struct {
	Allocation []Grant `json:"allocation"`
	Remaining  Supply  `json:"remaining"`
}

// Evaluation scores one iteration's allocation outcome.
type Evaluation struct {
	EffectivenessScore float64 `json:"effectiveness_score"`
	Allocated          int     `json:"allocated"`
	RemainingSupply    Supply  `json:"remaining_supply"`
}

// Report is the final output of one orchestration run. Constructed once at
// the end of Run and never mutated afterward.
type Report struct {
	Loop                int               `json:"loop"`
	Situational         *SituationReport  `json:"situational"`
	Allocation          *AllocationResult `json:"allocation"`
	Evaluation          *Evaluation       `json:"evaluation"`
	ConversationSummary string            `json:"conversation_summary"`
}
