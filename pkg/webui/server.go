// Package webui provides the HTTP service surface for running and observing
// relief orchestrations.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relieforch/pkg/config"
	"relieforch/pkg/logx"
	"relieforch/pkg/memory"
	"relieforch/pkg/metrics"
	"relieforch/pkg/orch"
	"relieforch/pkg/persistence"
	"relieforch/pkg/proto"
	"relieforch/pkg/utils"
	"relieforch/pkg/version"
)

// Server exposes the orchestrator over HTTP.
type Server struct {
	orchestrator *orch.Orchestrator
	bus          BusReader
	memory       *memory.SessionMemory
	store        *persistence.Store
	recorder     *metrics.Recorder
	stats        *metrics.QueryService
	cfg          *config.Config
	logger       *logx.Logger
	tokenCounter *utils.TokenCounter

	// Runs share one bus and memory, so only one may execute at a time.
	runMu sync.Mutex
}

// BusReader is the read side of the message bus used by the service
// endpoints.
type BusReader interface {
	Recent(n int) []*proto.ReliefMsg
	Len() int
	Summary() string
}

// OrchestrateRequest is the POST /orchestrate body. Omitted fields fall back
// to configured defaults.
type OrchestrateRequest struct {
	Goal          string       `json:"goal"`
	Supply        proto.Supply `json:"supply,omitempty"`
	MaxIterations int          `json:"max_iterations,omitempty"`
	Threshold     float64      `json:"threshold,omitempty"`
}

// NewServer creates the web service. The store, recorder, and token counter
// are optional.
func NewServer(orchestrator *orch.Orchestrator, busReader BusReader, mem *memory.SessionMemory, store *persistence.Store, recorder *metrics.Recorder, cfg *config.Config) *Server {
	tokenCounter, err := utils.NewTokenCounter()
	if err != nil {
		// CountTokens falls back to a character estimate on a nil counter.
		tokenCounter = nil
	}

	logger := logx.NewLogger("webui")

	var stats *metrics.QueryService
	if cfg.Metrics.PrometheusURL != "" {
		stats, err = metrics.NewQueryService(cfg.Metrics.PrometheusURL)
		if err != nil {
			logger.Warn("Stats endpoint disabled, invalid Prometheus URL %s: %v", cfg.Metrics.PrometheusURL, err)
		}
	}

	return &Server{
		orchestrator: orchestrator,
		bus:          busReader,
		memory:       mem,
		store:        store,
		recorder:     recorder,
		stats:        stats,
		cfg:          cfg,
		logger:       logger,
		tokenCounter: tokenCounter,
	}
}

// RegisterRoutes sets up HTTP routes for the API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/orchestrate", s.handleOrchestrate)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/logs", s.handleLogs)
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/metrics", promhttp.Handler())
}

// handleRoot implements GET / with basic service identification.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]string{
		"service": "relief-orchestrator",
		"version": version.Version,
		"state":   string(s.orchestrator.GetState()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode root response: %v", err)
	}
}

// handleOrchestrate implements POST /orchestrate. Runs are serialized; a
// request that arrives while another run is executing waits its turn.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req OrchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Goal == "" {
		http.Error(w, "Goal is required", http.StatusBadRequest)
		return
	}

	supply := req.Supply
	if supply == nil {
		supply = s.cfg.Orchestration.DefaultSupply.Clone()
	}
	maxIterations := req.MaxIterations
	if maxIterations == 0 {
		maxIterations = s.cfg.Orchestration.MaxIterations
	}
	threshold := req.Threshold
	if threshold == 0 {
		threshold = s.cfg.Orchestration.Threshold
	}

	s.runMu.Lock()
	report, err := s.orchestrator.Run(r.Context(), req.Goal, supply, maxIterations, threshold)
	s.updateContextTokens()
	s.runMu.Unlock()

	if err != nil {
		if errors.Is(err, orch.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("Orchestration failed for goal '%s': %v", req.Goal, err)
		http.Error(w, "Orchestration failed", http.StatusInternalServerError)
		return
	}

	if s.store != nil {
		if id, saveErr := s.store.SaveRun(r.Context(), req.Goal, report); saveErr != nil {
			s.logger.Warn("Failed to persist run: %v", saveErr)
		} else {
			s.logger.Debug("Persisted run %s", id)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error("Failed to encode orchestrate response: %v", err)
	}
}

// handleHealth implements GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":         "ok",
		"version":        version.Version,
		"state":          string(s.orchestrator.GetState()),
		"agents":         s.orchestrator.AgentNames(),
		"bus_messages":   s.bus.Len(),
		"context_tokens": s.tokenCounter.CountTokens(s.memory.Compact()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleRuns implements GET /runs, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Run history not available", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list runs: %v", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.logger.Error("Failed to encode runs response: %v", err)
	}

	s.logger.Debug("Served %d run records", len(runs))
}

// handleMessages implements GET /messages - recent bus traffic.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages := s.bus.Recent(limit)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		s.logger.Error("Failed to encode messages response: %v", err)
	}

	s.logger.Debug("Served %d message entries", len(messages))
}

// handleStats implements GET /stats - run metrics aggregated by the
// configured Prometheus server.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.stats == nil {
		http.Error(w, "Stats not available", http.StatusServiceUnavailable)
		return
	}

	summary, err := s.stats.GetRunSummary(r.Context())
	if err != nil {
		s.logger.Error("Failed to query run summary: %v", err)
		http.Error(w, "Failed to query run summary", http.StatusBadGateway)
		return
	}

	toolDurations, err := s.stats.GetToolDurations(r.Context())
	if err != nil {
		s.logger.Error("Failed to query tool durations: %v", err)
		http.Error(w, "Failed to query tool durations", http.StatusBadGateway)
		return
	}

	response := map[string]any{
		"summary":        summary,
		"tool_durations": toolDurations,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode stats response: %v", err)
	}
}

// handleLogs implements GET /logs from the in-memory log buffer.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var since time.Time
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, "Invalid since parameter (use RFC3339)", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	logs := logx.GetRecentLogEntries(since)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(logs); err != nil {
		s.logger.Error("Failed to encode logs response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("Served %d log entries", len(logs))
}

func (s *Server) updateContextTokens() {
	if s.recorder == nil {
		return
	}
	s.recorder.SetContextTokens(s.tokenCounter.CountTokens(s.memory.Compact()))
}

// StartServer starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) StartServer(ctx context.Context, host string, port int) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", host, port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting relief service on %s", addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down relief service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		//nolint:contextcheck // Parent context is cancelled; shutdown needs a fresh one
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed: %v", err)
		}
	}()

	return nil
}
