// Package appconfig manages loading and interpreting the harness configuration.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for model HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultMCPInitTimeout is the fallback timeout for the MCP server handshake.
	defaultMCPInitTimeout = 30 * time.Second
	// defaultRuns is how many times each approach is executed when the config omits the value.
	defaultRuns = 3
	// defaultViewportWidth and defaultViewportHeight standardize the browser
	// viewport before any screenshots are taken, so image token counts are
	// comparable across approaches.
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// Pricing is a fixed point-in-time snapshot of per-million-token prices.
type Pricing struct {
	InputPerMillion  float64 `json:"inputPerMillion"`
	OutputPerMillion float64 `json:"outputPerMillion"`
}

// Config represents the top-level application configuration.
type Config struct {
	ModelHost      string   `json:"modelHost"`
	Model          string   `json:"model"`
	MCPBinary      string   `json:"mcpBinary,omitempty"`
	MCPArgs        []string `json:"mcpArgs,omitempty"`
	MCPInitTimeout int      `json:"mcpInitTimeout,omitempty"`
	Headless       bool     `json:"headless"`
	ViewportWidth  int      `json:"viewportWidth,omitempty"`
	ViewportHeight int      `json:"viewportHeight,omitempty"`
	Runs           int      `json:"runs,omitempty"`
	TimeoutSeconds int      `json:"timeout,omitempty"`
	Pricing        Pricing  `json:"pricing"`
	TaskFile       string   `json:"taskFile,omitempty"`
	ExportPath     string   `json:"export,omitempty"`
	LogFile        string   `json:"logFile,omitempty"`
	Debug          bool     `json:"debug"`
	NoTUI          bool     `json:"noTui"`
	ConfigPath     string   `json:"-"`
}

// Load reads the configuration file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.ConfigPath = path
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.ModelHost) == "" {
		c.ModelHost = "http://localhost:11434"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultRequestTimeout / time.Second)
	}
	if c.Runs <= 0 {
		c.Runs = defaultRuns
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = defaultViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = defaultViewportHeight
	}
	if c.Pricing.InputPerMillion <= 0 {
		c.Pricing.InputPerMillion = 3
	}
	if c.Pricing.OutputPerMillion <= 0 {
		c.Pricing.OutputPerMillion = 15
	}
}

// RequestTimeout returns the timeout for model HTTP requests.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MCPInitTimeoutDuration returns the timeout for the MCP server handshake.
func (c Config) MCPInitTimeoutDuration() time.Duration {
	if c.MCPInitTimeout <= 0 {
		return defaultMCPInitTimeout
	}
	return time.Duration(c.MCPInitTimeout) * time.Second
}

// MCPCommand returns the resolved MCP server command and its arguments,
// defaulting to the Playwright MCP server launched through npx.
func (c Config) MCPCommand(headless bool) (string, []string) {
	if b := strings.TrimSpace(c.MCPBinary); b != "" {
		return b, c.MCPArgs
	}
	args := []string{"-y", "@playwright/mcp@latest"}
	if headless {
		args = append(args, "--headless")
	}
	return "npx", args
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := strings.TrimSpace(c.LogFile); path != "" {
		return path
	}
	return "browserbench.log"
}

// TaskFilePath returns the path of the benchmark task definition file.
func (c Config) TaskFilePath() string {
	if path := strings.TrimSpace(c.TaskFile); path != "" {
		return path
	}
	return "config/task.json"
}
