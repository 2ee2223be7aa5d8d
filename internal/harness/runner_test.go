package harness

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/browserbench/browserbench/internal/appconfig"
	"github.com/browserbench/browserbench/internal/llm"
	"github.com/browserbench/browserbench/internal/mcp"
)

type fakeSession struct {
	connectErr error
	results    map[string]*mcp.ToolResult
	callErr    map[string]error
	tools      []mcp.ToolDescriptor

	calls      []string
	closeCount int
}

func (s *fakeSession) Connect(ctx context.Context, opts mcp.ConnectOptions) error {
	return s.connectErr
}

func (s *fakeSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	s.calls = append(s.calls, name)
	if err := s.callErr[name]; err != nil {
		return nil, err
	}
	if res, ok := s.results[name]; ok {
		return res, nil
	}
	return &mcp.ToolResult{}, nil
}

func (s *fakeSession) Tools() []mcp.ToolDescriptor { return s.tools }

func (s *fakeSession) Close() error {
	s.closeCount++
	return nil
}

type fakeModel struct {
	replies []string
	meta    llm.Metadata
	reqs    []llm.Request
}

func (m *fakeModel) Complete(ctx context.Context, req llm.Request) (string, llm.Metadata, error) {
	m.reqs = append(m.reqs, req)
	if len(m.replies) == 0 {
		return "", llm.Metadata{}, errors.New("no scripted reply")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, m.meta, nil
}

func clickTool() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        "browser_click",
		Description: "Click an element",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"selector"},
			"properties": map[string]any{
				"selector": map[string]any{"type": "string"},
			},
		},
	}
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Runs:  1,
		Model: "test-model",
		Pricing: appconfig.Pricing{
			InputPerMillion:  3,
			OutputPerMillion: 15,
		},
	}
}

func testTask() *Task {
	return &Task{
		Name: "click through",
		URL:  "https://example.test",
		Steps: []Step{
			{Instruction: "click the button", Expect: "clicked"},
		},
	}
}

func pngScreenshot(width, height uint32) *mcp.ToolResult {
	buf := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	buf = append(buf, 0x00, 0x00, 0x00, 0x0D)
	buf = append(buf, 'I', 'H', 'D', 'R')
	buf = binary.BigEndian.AppendUint32(buf, width)
	buf = binary.BigEndian.AppendUint32(buf, height)
	return &mcp.ToolResult{Content: []mcp.ContentItem{{
		Type:     "image",
		Data:     base64.StdEncoding.EncodeToString(buf),
		MimeType: "image/png",
	}}}
}

func textResult(text string) *mcp.ToolResult {
	return &mcp.ToolResult{Content: []mcp.ContentItem{{Type: "text", Text: text}}}
}

func TestRunApproachSemantic(t *testing.T) {
	session := &fakeSession{
		tools: []mcp.ToolDescriptor{clickTool()},
		results: map[string]*mcp.ToolResult{
			"browser_snapshot": textResult("button was clicked"),
		},
	}
	model := &fakeModel{
		replies: []string{`{"tool": "browser_click", "arguments": {"selector": "#go"}}`},
		meta:    llm.Metadata{PromptTokens: 200, OutputTokens: 50},
	}
	runner := NewRunner(testConfig(), model, func() ToolSession { return session })

	results := runner.RunApproach(context.Background(), ApproachSemantic, testTask())
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if !res.Success {
		t.Fatal("run reported failure")
	}
	if res.RunID == "" {
		t.Error("missing run ID")
	}
	if res.InputTokens != 200 || res.OutputTokens != 50 {
		t.Errorf("tokens = %d/%d, want 200/50", res.InputTokens, res.OutputTokens)
	}
	wantCost := 200.0/1e6*3 + 50.0/1e6*15
	if res.TotalCostUSD != wantCost {
		t.Errorf("cost = %v, want %v", res.TotalCostUSD, wantCost)
	}
	if res.NumTurns != 1 {
		t.Errorf("turns = %d, want 1", res.NumTurns)
	}
	want := []string{"browser_navigate", "browser_click", "browser_snapshot"}
	if len(session.calls) != len(want) {
		t.Fatalf("calls = %v", session.calls)
	}
	for i, name := range want {
		if session.calls[i] != name {
			t.Errorf("call %d = %q, want %q", i, session.calls[i], name)
		}
	}
	if session.closeCount != 1 {
		t.Errorf("closeCount = %d, want 1", session.closeCount)
	}
	if len(model.reqs) != 1 || !strings.Contains(model.reqs[0].Messages[0].Content, "browser_click") {
		t.Error("prompt does not surface the tool catalog")
	}
}

func TestRunApproachScreenshotCountsImageTokens(t *testing.T) {
	session := &fakeSession{
		tools: []mcp.ToolDescriptor{clickTool()},
		results: map[string]*mcp.ToolResult{
			"browser_take_screenshot": pngScreenshot(1280, 800),
			"browser_snapshot":        textResult("clicked"),
		},
	}
	model := &fakeModel{
		replies: []string{`{"tool": "browser_click", "arguments": {"selector": "#go"}}`},
		meta:    llm.Metadata{PromptTokens: 1700, OutputTokens: 130},
	}
	runner := NewRunner(testConfig(), model, func() ToolSession { return session })

	res := runner.RunApproach(context.Background(), ApproachScreenshot, testTask())[0]
	if !res.Success {
		t.Fatal("run reported failure")
	}
	// ceil(1280*800/750) per screenshot; the closing screenshot is not sized.
	if res.ImageTokens != 1366 {
		t.Errorf("ImageTokens = %d, want 1366", res.ImageTokens)
	}
	if res.ToolUsage["browser_take_screenshot"] != 2 {
		t.Errorf("screenshot calls = %d, want 2", res.ToolUsage["browser_take_screenshot"])
	}
	if len(model.reqs) != 1 || len(model.reqs[0].Messages[0].Images) != 1 {
		t.Fatal("screenshot payload never reached the model")
	}
}

func TestRunApproachA11yPromptsWithTree(t *testing.T) {
	session := &fakeSession{
		tools: []mcp.ToolDescriptor{clickTool()},
		results: map[string]*mcp.ToolResult{
			"browser_snapshot": textResult("button: Go\nresult: clicked"),
		},
	}
	model := &fakeModel{
		replies: []string{`{"tool": "browser_click", "arguments": {"selector": "#go"}}`},
		meta:    llm.Metadata{PromptTokens: 400, OutputTokens: 20},
	}
	runner := NewRunner(testConfig(), model, func() ToolSession { return session })

	res := runner.RunApproach(context.Background(), ApproachA11y, testTask())[0]
	if !res.Success {
		t.Fatal("run reported failure")
	}
	if res.ImageTokens != 0 {
		t.Errorf("ImageTokens = %d, want 0", res.ImageTokens)
	}
	if !strings.Contains(model.reqs[0].Messages[0].Content, "button: Go") {
		t.Error("accessibility tree missing from prompt")
	}
}

func TestRunFailuresYieldZeroedResults(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		replies []string
	}{
		{
			name:    "connect failure",
			session: &fakeSession{connectErr: errors.New("spawn failed")},
		},
		{
			name: "model reply is not a tool call",
			session: &fakeSession{
				tools: []mcp.ToolDescriptor{clickTool()},
			},
			replies: []string{"I clicked the button for you."},
		},
		{
			name: "arguments rejected by schema",
			session: &fakeSession{
				tools: []mcp.ToolDescriptor{clickTool()},
			},
			replies: []string{`{"tool": "browser_click", "arguments": {}}`},
		},
		{
			name: "expectation not met",
			session: &fakeSession{
				tools: []mcp.ToolDescriptor{clickTool()},
				results: map[string]*mcp.ToolResult{
					"browser_snapshot": textResult("nothing happened"),
				},
			},
			replies: []string{`{"tool": "browser_click", "arguments": {"selector": "#go"}}`},
		},
		{
			name: "tool call fails",
			session: &fakeSession{
				tools:   []mcp.ToolDescriptor{clickTool()},
				callErr: map[string]error{"browser_click": errors.New("element not found")},
			},
			replies: []string{`{"tool": "browser_click", "arguments": {"selector": "#go"}}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{replies: tt.replies, meta: llm.Metadata{PromptTokens: 10, OutputTokens: 5}}
			runner := NewRunner(testConfig(), model, func() ToolSession { return tt.session })

			results := runner.RunApproach(context.Background(), ApproachSemantic, testTask())
			if len(results) != 1 {
				t.Fatalf("got %d results, want 1", len(results))
			}
			res := results[0]
			if res.Success {
				t.Fatal("failed run reported success")
			}
			if res.InputTokens != 0 || res.OutputTokens != 0 || res.TotalCostUSD != 0 {
				t.Errorf("failed run carries metrics: %+v", res)
			}
			if res.RunID == "" {
				t.Error("failed run missing run ID")
			}
		})
	}
}

func TestRunApproachEmitsProgress(t *testing.T) {
	session := &fakeSession{connectErr: errors.New("down")}
	cfg := testConfig()
	cfg.Runs = 2
	runner := NewRunner(cfg, &fakeModel{}, func() ToolSession { return session })

	var events []Progress
	runner.OnProgress = func(p Progress) { events = append(events, p) }

	runner.RunApproach(context.Background(), ApproachSemantic, testTask())
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Phase != "start" || events[1].Phase != "failed" {
		t.Errorf("unexpected phases %q, %q", events[0].Phase, events[1].Phase)
	}
	if events[3].Run != 2 || events[3].Total != 2 {
		t.Errorf("last event = %+v", events[3])
	}
}

func TestParseToolInvocation(t *testing.T) {
	inv, err := parseToolInvocation("Sure, here you go:\n```json\n{\"tool\": \"browser_click\", \"arguments\": {\"selector\": \"#a\"}}\n```")
	if err != nil {
		t.Fatalf("parseToolInvocation: %v", err)
	}
	if inv.Tool != "browser_click" {
		t.Errorf("Tool = %q", inv.Tool)
	}
	if inv.Arguments["selector"] != "#a" {
		t.Errorf("Arguments = %v", inv.Arguments)
	}

	if _, err := parseToolInvocation("no tools needed"); err == nil {
		t.Error("expected error for prose reply")
	}
	if _, err := parseToolInvocation(`{"arguments": {}}`); err == nil {
		t.Error("expected error for missing tool name")
	}
}

func TestValidateInvocationUnknownTool(t *testing.T) {
	inv := &toolInvocation{Tool: "browser_teleport", Arguments: map[string]any{}}
	if err := validateInvocation(inv, []mcp.ToolDescriptor{clickTool()}); err == nil {
		t.Error("expected error for unknown tool")
	}

	// A tool without a published schema accepts any arguments.
	bare := []mcp.ToolDescriptor{{Name: "browser_wait"}}
	ok := &toolInvocation{Tool: "browser_wait", Arguments: map[string]any{"seconds": 1}}
	if err := validateInvocation(ok, bare); err != nil {
		t.Errorf("validateInvocation: %v", err)
	}
}
