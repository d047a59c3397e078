// Command reliefdemo runs a single orchestration against the built-in
// scenario and prints the resulting report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"relieforch/pkg/agents"
	"relieforch/pkg/bus"
	"relieforch/pkg/config"
	"relieforch/pkg/memory"
	"relieforch/pkg/orch"
	"relieforch/pkg/scenario"
	"relieforch/pkg/tools"
)

func main() {
	var goal string
	var scenarioPath string
	var maxIterations int
	var threshold float64
	flag.StringVar(&goal, "goal", "Deliver aid to flooded sites", "Orchestration goal")
	flag.StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML (default: built-in scenario)")
	flag.IntVar(&maxIterations, "loops", config.DefaultMaxIterations, "Maximum loop iterations")
	flag.Float64Var(&threshold, "threshold", config.DefaultThreshold, "Effectiveness score threshold")
	flag.Parse()

	if err := run(goal, scenarioPath, maxIterations, threshold); err != nil {
		fmt.Fprintf(os.Stderr, "reliefdemo: %v\n", err)
		os.Exit(1)
	}
}

func run(goal, scenarioPath string, maxIterations int, threshold float64) error {
	sc := scenario.Default()
	if scenarioPath != "" {
		loaded, err := scenario.Load(scenarioPath)
		if err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		sc = loaded
	}

	b := bus.New()
	mem := memory.New(memory.DefaultCapacity)

	var opts []orch.Option
	if apiKey := config.GetGeminiAPIKey(); apiKey != "" {
		if advisor := agents.NewAdvisor(apiKey, agents.DefaultAdvisorModel); advisor != nil {
			opts = append(opts, orch.WithAdvisor(advisor))
		}
	}

	orchestrator := orch.New(b, mem, tools.NewScenarioSearch(sc, nil), tools.NewGreedyAllocator(), opts...)

	supply := config.Default().Orchestration.DefaultSupply
	report, err := orchestrator.Run(context.Background(), goal, supply, maxIterations, threshold)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
