// Package benchmark holds the accounting primitives of the harness: the
// per-run token counter, the result records, and the cross-run aggregation.
package benchmark

// TokenUsage is one model invocation's accounting units.
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Result is the low-level outcome of a single scripted run of one approach.
// TotalTokens is always TotalInputTokens + TotalOutputTokens, and
// ToolCallCount is omitted when no tool call was recorded.
type Result struct {
	Approach          string `json:"approach"`
	TotalInputTokens  int    `json:"totalInputTokens"`
	TotalOutputTokens int    `json:"totalOutputTokens"`
	TotalTokens       int    `json:"totalTokens"`
	ImageTokens       int    `json:"imageTokens"`
	ScreenshotsTaken  int    `json:"screenshotsTaken"`
	ToolCallCount     int    `json:"toolCallCount,omitempty"`
}

// AgentResult is the outcome of one agent-driven run. It is created once per
// completed run and never mutated afterwards. A run that could not complete
// is recorded with Success=false and zeroed metrics so aggregation keeps a
// well-defined denominator.
type AgentResult struct {
	RunID        string         `json:"runId"`
	Approach     string         `json:"approach"`
	Success      bool           `json:"success"`
	InputTokens  int            `json:"inputTokens"`
	OutputTokens int            `json:"outputTokens"`
	ImageTokens  int            `json:"imageTokens"`
	TotalCostUSD float64        `json:"totalCostUsd"`
	DurationMs   int64          `json:"durationMs"`
	NumTurns     int            `json:"numTurns"`
	ToolUsage    map[string]int `json:"toolUsage,omitempty"`
}

// Aggregated reduces N runs of one approach into averaged metrics, a success
// rate, and a tool-usage histogram summed across runs.
type Aggregated struct {
	Approach        string         `json:"approach"`
	Runs            []AgentResult  `json:"runs"`
	AvgInputTokens  float64        `json:"avgInputTokens"`
	AvgOutputTokens float64        `json:"avgOutputTokens"`
	AvgImageTokens  float64        `json:"avgImageTokens"`
	AvgCostUSD      float64        `json:"avgCostUsd"`
	AvgDurationMs   float64        `json:"avgDurationMs"`
	AvgNumTurns     float64        `json:"avgNumTurns"`
	SuccessRate     float64        `json:"successRate"`
	TotalToolUsage  map[string]int `json:"totalToolUsage,omitempty"`
}
