// Package config provides configuration loading, validation, and defaults
// for the relief orchestration service. It handles JSON config files and
// environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"relieforch/pkg/proto"
)

// Default run parameters, matching the reference service.
const (
	DefaultMaxIterations  = 2
	DefaultThreshold      = 0.7
	DefaultMemoryCapacity = 60
	DefaultToolTimeout    = 10 * time.Second

	DefaultHost = "0.0.0.0"
	DefaultPort = 8000

	DefaultGeminiModel = "gemini-2.5-flash"
)

// Environment variables consulted at load time.
const (
	EnvGeminiAPIKey = "GOOGLE_API_KEY"
	EnvConfigPath   = "RELIEF_CONFIG"
)

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// OrchestrationConfig holds run-level defaults applied when a request omits
// them.
type OrchestrationConfig struct {
	MaxIterations  int          `json:"max_iterations"`
	Threshold      float64      `json:"threshold"`
	MemoryCapacity int          `json:"memory_capacity"`
	ToolTimeoutSec int          `json:"tool_timeout_sec"`
	DefaultSupply  proto.Supply `json:"default_supply"`
}

// EventLogConfig controls the JSONL bus mirror.
type EventLogConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"`
}

// PersistenceConfig controls run history storage.
type PersistenceConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MetricsConfig points at the Prometheus server scraping this service. An
// empty URL disables the aggregated stats endpoint.
type MetricsConfig struct {
	PrometheusURL string `json:"prometheus_url"`
}

// GeminiConfig selects the optional plan advisory model. The API key comes
// from GOOGLE_API_KEY, never from the config file.
type GeminiConfig struct {
	Model string `json:"model"`
}

// Config is the top-level service configuration.
type Config struct {
	Server        ServerConfig        `json:"server"`
	Orchestration OrchestrationConfig `json:"orchestration"`
	EventLog      EventLogConfig      `json:"event_log"`
	Persistence   PersistenceConfig   `json:"persistence"`
	Metrics       MetricsConfig       `json:"metrics"`
	Scenario      string              `json:"scenario"`
	Gemini        GeminiConfig        `json:"gemini"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a JSON config file, applies defaults for missing fields, and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Orchestration.MaxIterations == 0 {
		cfg.Orchestration.MaxIterations = DefaultMaxIterations
	}
	if cfg.Orchestration.Threshold == 0 {
		cfg.Orchestration.Threshold = DefaultThreshold
	}
	if cfg.Orchestration.MemoryCapacity == 0 {
		cfg.Orchestration.MemoryCapacity = DefaultMemoryCapacity
	}
	if cfg.Orchestration.ToolTimeoutSec == 0 {
		cfg.Orchestration.ToolTimeoutSec = int(DefaultToolTimeout / time.Second)
	}
	if cfg.Orchestration.DefaultSupply == nil {
		cfg.Orchestration.DefaultSupply = proto.Supply{"water": 3, "medical": 2, "food": 4}
	}
	if cfg.EventLog.Dir == "" {
		cfg.EventLog.Dir = "logs"
	}
	if cfg.Persistence.Path == "" {
		cfg.Persistence.Path = "relief.db"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = DefaultGeminiModel
	}
}

// Validate rejects configurations the orchestrator would refuse at run time.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Orchestration.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.Orchestration.MaxIterations)
	}
	if c.Orchestration.Threshold <= 0 || c.Orchestration.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Orchestration.Threshold)
	}
	if c.Orchestration.MemoryCapacity <= 0 {
		return fmt.Errorf("memory_capacity must be positive, got %d", c.Orchestration.MemoryCapacity)
	}
	if c.Orchestration.ToolTimeoutSec <= 0 {
		return fmt.Errorf("tool_timeout_sec must be positive, got %d", c.Orchestration.ToolTimeoutSec)
	}
	if err := c.Orchestration.DefaultSupply.Validate(); err != nil {
		return fmt.Errorf("default_supply: %w", err)
	}
	return nil
}

// ToolTimeout returns the tool deadline as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Orchestration.ToolTimeoutSec) * time.Second
}

// GetGeminiAPIKey reads the optional Gemini API key from the environment.
// An empty key disables plan advisories.
func GetGeminiAPIKey() string {
	return os.Getenv(EnvGeminiAPIKey)
}
