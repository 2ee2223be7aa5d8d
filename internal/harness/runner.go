package harness

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/browserbench/browserbench/internal/appconfig"
	"github.com/browserbench/browserbench/internal/benchmark"
	"github.com/browserbench/browserbench/internal/imagemeta"
	"github.com/browserbench/browserbench/internal/llm"
	"github.com/browserbench/browserbench/internal/logging"
	"github.com/browserbench/browserbench/internal/mcp"
	"github.com/browserbench/browserbench/internal/tokens"
)

// ToolSession is the slice of the MCP session the runner drives. A fresh
// session is created per run so state never leaks between runs.
type ToolSession interface {
	Connect(ctx context.Context, opts mcp.ConnectOptions) error
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error)
	Tools() []mcp.ToolDescriptor
	Close() error
}

// ModelClient is the slice of the LLM client the runner needs.
type ModelClient interface {
	Complete(ctx context.Context, req llm.Request) (string, llm.Metadata, error)
}

// Progress describes one lifecycle moment of a run, for display layers.
type Progress struct {
	Approach Approach
	Run      int
	Total    int
	Phase    string
}

// Runner executes N runs per approach sequentially and reports each run as
// an AgentResult, including failed runs.
type Runner struct {
	cfg         *appconfig.Config
	model       ModelClient
	newSession  func() ToolSession
	textCounter *tokens.TextCounter

	// OnProgress, when set, receives run lifecycle events.
	OnProgress func(Progress)
}

// NewRunner wires a runner from its collaborators. newSession is called once
// per run.
func NewRunner(cfg *appconfig.Config, model ModelClient, newSession func() ToolSession) *Runner {
	return &Runner{
		cfg:         cfg,
		model:       model,
		newSession:  newSession,
		textCounter: tokens.NewTextCounter(),
	}
}

func (r *Runner) progress(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

// RunApproach executes the configured number of runs of one approach against
// the task. Every run yields exactly one result; runs that fail part-way are
// returned with Success=false so the aggregate denominator stays honest.
func (r *Runner) RunApproach(ctx context.Context, approach Approach, task *Task) []benchmark.AgentResult {
	total := r.cfg.Runs
	if total < 1 {
		total = 1
	}

	results := make([]benchmark.AgentResult, 0, total)
	for i := 1; i <= total; i++ {
		r.progress(Progress{Approach: approach, Run: i, Total: total, Phase: "start"})
		res := r.runOnce(ctx, approach, task)
		phase := "done"
		if !res.Success {
			phase = "failed"
		}
		r.progress(Progress{Approach: approach, Run: i, Total: total, Phase: phase})
		results = append(results, res)
	}
	return results
}

// runState carries the per-run accounting shared by the step drivers.
type runState struct {
	session  ToolSession
	counter  *benchmark.TokenCounter
	usage    map[string]int
	turns    int
	approach Approach
	task     *Task
}

// call executes one tool call and records it. Results flagged isError by the
// server abort the run.
func (st *runState) call(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	res, err := st.session.CallTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	st.counter.IncrementToolCalls(1)
	st.usage[name]++
	if res.IsError {
		return nil, fmt.Errorf("tool %s failed: %s", name, res.Text())
	}
	return res, nil
}

// act turns one model reply into one tool call.
func (st *runState) act(ctx context.Context, reply string) error {
	inv, err := parseToolInvocation(reply)
	if err != nil {
		return err
	}
	if err := validateInvocation(inv, st.session.Tools()); err != nil {
		return err
	}
	_, err = st.call(ctx, inv.Tool, inv.Arguments)
	return err
}

func (r *Runner) runOnce(ctx context.Context, approach Approach, task *Task) benchmark.AgentResult {
	start := time.Now()
	result := benchmark.AgentResult{
		RunID:    uuid.NewString(),
		Approach: string(approach),
	}

	session := r.newSession()
	if err := session.Connect(ctx, mcp.ConnectOptions{Headless: r.cfg.Headless}); err != nil {
		logging.LogWarning("run %s: connect failed: %v", result.RunID, err)
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}
	defer session.Close()

	st := &runState{
		session:  session,
		counter:  benchmark.NewTokenCounter(),
		usage:    map[string]int{},
		approach: approach,
		task:     task,
	}

	err := r.execute(ctx, st)
	result.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		logging.LogWarning("run %s (%s) failed: %v", result.RunID, approach, err)
		return result
	}

	snapshot := st.counter.Result(string(approach))
	result.Success = true
	result.InputTokens = snapshot.TotalInputTokens
	result.OutputTokens = snapshot.TotalOutputTokens
	result.ImageTokens = snapshot.ImageTokens
	result.TotalCostUSD = tokens.EstimateCostUSD(snapshot.TotalInputTokens, snapshot.TotalOutputTokens, r.cfg.Pricing)
	result.NumTurns = st.turns
	result.ToolUsage = st.usage
	return result
}

func (r *Runner) execute(ctx context.Context, st *runState) error {
	if _, err := st.call(ctx, "browser_navigate", map[string]any{"url": st.task.URL}); err != nil {
		return fmt.Errorf("opening %s: %w", st.task.URL, err)
	}

	for i, step := range st.task.Steps {
		var err error
		switch st.approach {
		case ApproachScreenshot:
			err = r.screenshotStep(ctx, st, step)
		case ApproachA11y:
			err = r.a11yStep(ctx, st, step)
		default:
			err = r.semanticStep(ctx, st, step)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	if err := r.verify(ctx, st); err != nil {
		return err
	}

	// Closing screenshot for the artifact trail. Losing it does not fail a
	// run that already met its expectations.
	if st.approach == ApproachScreenshot {
		if _, err := st.call(ctx, "browser_take_screenshot", map[string]any{}); err != nil {
			logging.LogWarning("final screenshot failed: %v", err)
		} else {
			st.counter.IncrementScreenshots()
		}
	}
	return nil
}

// screenshotStep captures the page, sizes every returned image for token
// accounting, and asks the vision model for the next action.
func (r *Runner) screenshotStep(ctx context.Context, st *runState, step Step) error {
	res, err := st.call(ctx, "browser_take_screenshot", map[string]any{})
	if err != nil {
		return err
	}
	st.counter.IncrementScreenshots()

	var payloads []string
	imageTokens := 0
	for _, img := range res.Images() {
		payloads = append(payloads, img.Data)
		raw, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			logging.LogWarning("screenshot payload is not valid base64: %v", err)
			continue
		}
		dims := imagemeta.Inspect(raw, img.MimeType)
		if dims == nil {
			logging.LogWarning("cannot size %s screenshot; excluding it from the image-token estimate", img.MimeType)
			continue
		}
		imageTokens += tokens.EstimateImageTokens(dims.Width, dims.Height)
	}

	reply, meta, err := r.model.Complete(ctx, llm.Request{
		Model:        r.cfg.Model,
		SystemPrompt: st.approach.systemPrompt(),
		Messages: []llm.Message{{
			Role:    "user",
			Content: step.Instruction,
			Images:  payloads,
		}},
	})
	if err != nil {
		return err
	}
	st.counter.AddImageCall(benchmark.TokenUsage{InputTokens: meta.PromptTokens, OutputTokens: meta.OutputTokens}, imageTokens)
	st.turns++
	return st.act(ctx, reply)
}

// semanticStep hands the model the tool catalog and the instruction; the
// page itself never enters the prompt.
func (r *Runner) semanticStep(ctx context.Context, st *runState, step Step) error {
	prompt := toolCatalog(st.session.Tools()) + "\nInstruction: " + step.Instruction

	reply, meta, err := r.model.Complete(ctx, llm.Request{
		Model:        r.cfg.Model,
		SystemPrompt: st.approach.systemPrompt(),
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return err
	}
	st.counter.AddTextCall(benchmark.TokenUsage{InputTokens: meta.PromptTokens, OutputTokens: meta.OutputTokens})
	st.turns++
	return st.act(ctx, reply)
}

// a11yStep snapshots the accessibility tree and prompts with it as text.
func (r *Runner) a11yStep(ctx context.Context, st *runState, step Step) error {
	res, err := st.call(ctx, "browser_snapshot", map[string]any{})
	if err != nil {
		return err
	}
	tree := res.Text()
	logging.LogEvent("accessibility tree is ~%d tokens", r.textCounter.Count(tree))

	prompt := "Page accessibility tree:\n" + tree + "\n\nInstruction: " + step.Instruction
	reply, meta, err := r.model.Complete(ctx, llm.Request{
		Model:        r.cfg.Model,
		SystemPrompt: st.approach.systemPrompt(),
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return err
	}
	st.counter.AddTextCall(benchmark.TokenUsage{InputTokens: meta.PromptTokens, OutputTokens: meta.OutputTokens})
	st.turns++
	return st.act(ctx, reply)
}

// verify checks every step expectation against the final page state. Tasks
// without expectations pass by construction.
func (r *Runner) verify(ctx context.Context, st *runState) error {
	var expects []string
	for _, step := range st.task.Steps {
		if step.Expect != "" {
			expects = append(expects, step.Expect)
		}
	}
	if len(expects) == 0 {
		return nil
	}

	res, err := st.call(ctx, "browser_snapshot", map[string]any{})
	if err != nil {
		return fmt.Errorf("reading final page state: %w", err)
	}
	state := res.Text()
	for _, want := range expects {
		if !strings.Contains(state, want) {
			return fmt.Errorf("expected %q in final page state", want)
		}
	}
	return nil
}
