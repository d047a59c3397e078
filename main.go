package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"relieforch/pkg/agents"
	"relieforch/pkg/bus"
	"relieforch/pkg/config"
	"relieforch/pkg/eventlog"
	"relieforch/pkg/logx"
	"relieforch/pkg/memory"
	"relieforch/pkg/metrics"
	"relieforch/pkg/orch"
	"relieforch/pkg/persistence"
	"relieforch/pkg/scenario"
	"relieforch/pkg/tools"
	"relieforch/pkg/webui"
)

func main() {
	var configPath string
	var scenarioPath string
	var addr string
	flag.StringVar(&configPath, "config", "", "Path to config file (default: $RELIEF_CONFIG)")
	flag.StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML (default: built-in scenario)")
	flag.StringVar(&addr, "addr", "", "Listen address host:port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if scenarioPath == "" {
		scenarioPath = cfg.Scenario
	}
	if addr != "" {
		host, portStr, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			log.Fatalf("Invalid -addr %q: %v", addr, splitErr)
		}
		port, portErr := strconv.Atoi(portStr)
		if portErr != nil {
			log.Fatalf("Invalid -addr port %q: %v", portStr, portErr)
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}

	logger := logx.NewLogger("main")

	sc := scenario.Default()
	if scenarioPath != "" {
		sc, err = scenario.Load(scenarioPath)
		if err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}
	}

	b := bus.New()
	mem := memory.New(cfg.Orchestration.MemoryCapacity)

	var eventLog *eventlog.Writer
	if cfg.EventLog.Enabled {
		eventLog, err = eventlog.NewWriter(cfg.EventLog.Dir)
		if err != nil {
			log.Fatalf("Failed to create event log: %v", err)
		}
		b.SetSink(eventLog)
	}

	search := tools.WithSearchTimeout(tools.NewScenarioSearch(sc, nil), cfg.ToolTimeout())
	allocator := tools.WithAllocateTimeout(tools.NewGreedyAllocator(), cfg.ToolTimeout())

	recorder := metrics.NewRecorder()
	opts := []orch.Option{orch.WithObserver(recorder)}

	if apiKey := config.GetGeminiAPIKey(); apiKey != "" {
		if advisor := agents.NewAdvisor(apiKey, cfg.Gemini.Model); advisor != nil {
			logger.Info("Plan advisories enabled (model=%s)", cfg.Gemini.Model)
			opts = append(opts, orch.WithAdvisor(advisor))
		}
	}

	orchestrator := orch.New(b, mem, search, allocator, opts...)

	var store *persistence.Store
	if cfg.Persistence.Enabled {
		store, err = persistence.Open(cfg.Persistence.Path)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := webui.NewServer(orchestrator, b, mem, store, recorder, cfg)
	if err := server.StartServer(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close run store: %v", err)
		}
	}
	if eventLog != nil {
		if err := eventLog.Close(); err != nil {
			logger.Warn("Failed to close event log: %v", err)
		}
	}
}
