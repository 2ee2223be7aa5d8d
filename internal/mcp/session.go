// Package mcp wraps the lifecycle of a stdio MCP tool server: spawn, JSON-RPC
// handshake, tool calls, and guaranteed teardown. One Session drives one
// benchmark run; sessions are not safe to share across concurrent runs.
package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/browserbench/browserbench/internal/appconfig"
	"github.com/browserbench/browserbench/internal/logging"
	"github.com/browserbench/browserbench/internal/tokens"
)

// ErrNotConnected is returned when a tool call is attempted before Connect.
var ErrNotConnected = errors.New("mcp: session not connected")

// closeGrace is how long Close waits for the server process to exit on its
// own before killing it. Orphaned browser processes would poison repeated
// benchmark runs in the same invocation.
const closeGrace = 2 * time.Second

// ToolDescriptor describes one tool advertised by the server.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ContentItem is one typed element of a tool result.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolResult is the structured result of one tool call, returned verbatim.
// Interpretation of the payload is the caller's job.
type ToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ExtractedImage is a base64 image payload with its declared MIME type.
type ExtractedImage struct {
	Data     string
	MimeType string
}

// Text joins the textual parts of the result.
func (r *ToolResult) Text() string {
	var parts []string
	for _, item := range r.Content {
		if item.Type == "text" && item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Images returns the image parts whose declared MIME type is one of the
// recognized formats. Unsupported declarations are dropped at the boundary.
func (r *ToolResult) Images() []ExtractedImage {
	var images []ExtractedImage
	for _, item := range r.Content {
		if item.Type != "image" || item.Data == "" {
			continue
		}
		if !tokens.ValidMimeType(item.MimeType) {
			logging.LogWarning("dropping image with unsupported mime type %q", item.MimeType)
			continue
		}
		images = append(images, ExtractedImage{Data: item.Data, MimeType: item.MimeType})
	}
	return images
}

// ConnectOptions control how the server process is launched.
type ConnectOptions struct {
	Headless bool
}

// Session manages one connection to an MCP tool server. The zero value via
// NewSession starts Disconnected; every call method requires Connect first.
type Session struct {
	cfg    *appconfig.Config
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
	writer *bufio.Writer

	seqMu sync.Mutex
	seq   int64
	rpcMu sync.Mutex

	connected bool
	tools     []ToolDescriptor
}

// NewSession returns a disconnected session bound to the given configuration.
func NewSession(cfg *appconfig.Config) *Session {
	return &Session{cfg: cfg}
}

// IsConnected reports whether the session holds a live connection.
func (s *Session) IsConnected() bool {
	return s.connected
}

// Tools returns the descriptors enumerated during Connect.
func (s *Session) Tools() []ToolDescriptor {
	return s.tools
}

// Connect spawns the MCP server, performs the initialize handshake,
// enumerates the available tools, and standardizes the browser viewport.
// On any failure the process is torn down and the session stays disconnected.
func (s *Session) Connect(ctx context.Context, opts ConnectOptions) error {
	if s.cfg == nil {
		return fmt.Errorf("mcp: session requires non-nil config")
	}
	if s.connected {
		return fmt.Errorf("mcp: session already connected")
	}

	binary, args := s.cfg.MCPCommand(opts.Headless)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("mcp stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("mcp stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		logging.LogEvent("MCP server failed to start: %v", err)
		return fmt.Errorf("start mcp server: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.reader = bufio.NewReader(stdout)
	s.writer = bufio.NewWriter(stdin)

	initCtx, cancel := context.WithTimeout(ctx, s.cfg.MCPInitTimeoutDuration())
	defer cancel()

	if err := s.initialize(initCtx); err != nil {
		logging.LogEvent("MCP server initialization failed: %v", err)
		s.teardown()
		return err
	}
	s.connected = true

	if s.cmd.Process != nil {
		logging.LogEvent("MCP server started: command=%s pid=%d", binary, s.cmd.Process.Pid)
	}

	if err := s.discoverTools(initCtx); err != nil {
		logging.LogWarning("failed to list MCP tools: %v", err)
	}

	if err := s.standardizeViewport(initCtx); err != nil {
		s.connected = false
		s.teardown()
		return err
	}

	return nil
}

func (s *Session) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo": map[string]any{
			"name":    "browserbench",
			"version": "dev",
		},
		"capabilities": map[string]any{},
	}
	if _, err := s.rpcCall(ctx, "initialize", params, rpcMetadata{method: "initialize"}); err != nil {
		return fmt.Errorf("mcp initialize: %w", err)
	}
	return nil
}

func (s *Session) discoverTools(ctx context.Context) error {
	resp, err := s.rpcCall(ctx, "tools/list", nil, rpcMetadata{method: "tools/list"})
	if err != nil {
		return err
	}
	descriptors, err := decodeToolList(resp.Result)
	if err != nil {
		return err
	}
	s.tools = descriptors
	if len(descriptors) > 0 {
		names := make([]string, len(descriptors))
		for i, d := range descriptors {
			names[i] = d.Name
		}
		logging.LogEvent("Available MCP tools: %s", strings.Join(names, ", "))
	}
	return nil
}

// standardizeViewport issues the fixed browser_resize call so that image
// token counts are comparable across approaches. When the server does not
// advertise the tool the step is skipped with a warning.
func (s *Session) standardizeViewport(ctx context.Context) error {
	const resizeTool = "browser_resize"
	if !s.hasTool(resizeTool) {
		logging.LogWarning("MCP server does not advertise %s; viewport left as-is", resizeTool)
		return nil
	}
	args := map[string]any{
		"width":  s.cfg.ViewportWidth,
		"height": s.cfg.ViewportHeight,
	}
	if _, err := s.CallTool(ctx, resizeTool, args); err != nil {
		return fmt.Errorf("standardize viewport: %w", err)
	}
	return nil
}

func (s *Session) hasTool(name string) bool {
	for _, tool := range s.tools {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// CallTool forwards the named operation to the server and returns its
// structured result verbatim. Calling it while disconnected is a programmer
// error surfaced as ErrNotConnected.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}
	if args == nil {
		args = map[string]any{}
	}
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	resp, err := s.rpcCall(ctx, "tools/call", params, rpcMetadata{method: "tools/call", tool: name})
	if err != nil {
		return nil, err
	}
	return decodeToolResult(resp.Result)
}

// Close terminates the server process and transitions to Disconnected. It is
// idempotent: closing a disconnected session is a no-op.
func (s *Session) Close() error {
	if s.cmd == nil && s.stdin == nil {
		s.connected = false
		return nil
	}
	err := s.teardown()
	s.connected = false
	return err
}

// teardown closes stdin and waits for the process, killing it after a grace
// period. It guarantees the subprocess is gone when it returns.
func (s *Session) teardown() error {
	var firstErr error

	if s.stdin != nil {
		_ = s.stdin.Close()
		s.stdin = nil
	}

	if s.cmd != nil {
		done := make(chan error, 1)
		go func() {
			done <- s.cmd.Wait()
		}()
		select {
		case err := <-done:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-time.After(closeGrace):
			if s.cmd.Process != nil {
				_ = s.cmd.Process.Kill()
			}
			if err := <-done; err != nil && firstErr == nil {
				firstErr = err
			}
		}
		s.cmd = nil
	}

	return firstErr
}

func (s *Session) endpointLabel() string {
	if s.cfg != nil {
		if b := strings.TrimSpace(s.cfg.MCPBinary); b != "" {
			return b
		}
	}
	return "playwright-mcp"
}
