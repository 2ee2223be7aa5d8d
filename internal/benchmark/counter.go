package benchmark

// TokenCounter accumulates token usage, screenshot counts, and tool-call
// counts over the events of one benchmark run. It is owned exclusively by
// the run that created it and is not safe for concurrent use.
type TokenCounter struct {
	inputTokens     int
	outputTokens    int
	imageTokens     int
	screenshotCount int
	toolCallCount   int
}

// NewTokenCounter returns a zeroed counter for one run.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// AddTextCall records a text-only model invocation.
func (c *TokenCounter) AddTextCall(usage TokenUsage) {
	c.inputTokens += usage.InputTokens
	c.outputTokens += usage.OutputTokens
}

// AddImageCall records a model invocation that carried image content.
// imageTokens is the separately estimated image share; it is tracked as its
// own reportable metric and not added again to the textual totals.
func (c *TokenCounter) AddImageCall(usage TokenUsage, imageTokens int) {
	c.inputTokens += usage.InputTokens
	c.outputTokens += usage.OutputTokens
	c.imageTokens += imageTokens
}

// IncrementScreenshots records one captured screenshot.
func (c *TokenCounter) IncrementScreenshots() {
	c.screenshotCount++
}

// IncrementToolCalls records count tool invocations. A count below one
// records a single call.
func (c *TokenCounter) IncrementToolCalls(count int) {
	if count < 1 {
		count = 1
	}
	c.toolCallCount += count
}

// Result snapshots the accumulated state into an immutable record labelled
// with the approach. It does not reset the counter; calling it repeatedly on
// an unmutated counter yields structurally equal results.
func (c *TokenCounter) Result(approach string) Result {
	return Result{
		Approach:          approach,
		TotalInputTokens:  c.inputTokens,
		TotalOutputTokens: c.outputTokens,
		TotalTokens:       c.inputTokens + c.outputTokens,
		ImageTokens:       c.imageTokens,
		ScreenshotsTaken:  c.screenshotCount,
		ToolCallCount:     c.toolCallCount,
	}
}
