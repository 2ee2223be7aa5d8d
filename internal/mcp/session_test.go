package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

func TestCallToolRequiresConnect(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.CallTool(context.Background(), "browser_click", nil); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestCloseIdempotentWithoutConnect(t *testing.T) {
	s := NewSession(nil)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if s.IsConnected() {
		t.Fatal("session should stay disconnected")
	}
}

func frame(t *testing.T, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return append(fmt.Appendf(nil, "Content-Length: %d\r\n\r\n", len(data)), data...)
}

func TestFrameRoundTrip(t *testing.T) {
	var wire bytes.Buffer
	s := &Session{writer: bufio.NewWriter(&wire)}
	body := []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)
	if err := s.writeFrame(body); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	s.reader = bufio.NewReader(&wire)
	resp, err := s.readMessageBlocking()
	if err != nil {
		t.Fatalf("readMessageBlocking: %v", err)
	}
	if string(resp.ID) != "1" {
		t.Fatalf("unexpected id: %s", resp.ID)
	}
}

func TestRPCCallSkipsNotifications(t *testing.T) {
	var input bytes.Buffer
	input.Write(frame(t, map[string]any{"jsonrpc": "2.0", "method": "notifications/progress"}))
	input.Write(frame(t, map[string]any{"jsonrpc": "2.0", "id": 1, "result": map[string]any{"ok": true}}))

	s := &Session{
		reader: bufio.NewReader(&input),
		writer: bufio.NewWriter(&bytes.Buffer{}),
	}
	resp, err := s.rpcCall(context.Background(), "tools/list", nil, rpcMetadata{})
	if err != nil {
		t.Fatalf("rpcCall: %v", err)
	}
	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil || !result.OK {
		t.Fatalf("unexpected result %s (err %v)", resp.Result, err)
	}
}

func TestRPCCallSurfacesErrors(t *testing.T) {
	var input bytes.Buffer
	input.Write(frame(t, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"error":   map[string]any{"code": -32601, "message": "method not found"},
	}))

	s := &Session{
		reader: bufio.NewReader(&input),
		writer: bufio.NewWriter(&bytes.Buffer{}),
	}
	if _, err := s.rpcCall(context.Background(), "bogus", nil, rpcMetadata{}); err == nil {
		t.Fatal("expected error from error response")
	}
}

func TestReadMessageMissingContentLength(t *testing.T) {
	input := bytes.NewBufferString("X-Other: 1\r\n\r\n")
	s := &Session{reader: bufio.NewReader(input)}
	if _, err := s.readMessageBlocking(); err == nil {
		t.Fatal("expected missing Content-Length error")
	}
}

func TestDecodeToolList(t *testing.T) {
	raw := json.RawMessage(`{"tools":[{"name":"browser_click","description":"click"},{"name":"browser_snapshot"}]}`)
	tools, err := decodeToolList(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 || tools[0].Name != "browser_click" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
	if tools, err := decodeToolList(nil); err != nil || tools != nil {
		t.Fatalf("empty result should decode to nil, got %v %v", tools, err)
	}
}

func TestToolResultImagesFiltersUnsupported(t *testing.T) {
	result := &ToolResult{
		Content: []ContentItem{
			{Type: "text", Text: "page loaded"},
			{Type: "image", Data: "aGVsbG8=", MimeType: "image/png"},
			{Type: "image", Data: "aGVsbG8=", MimeType: "image/avif"},
			{Type: "image", MimeType: "image/png"},
		},
	}
	images := result.Images()
	if len(images) != 1 {
		t.Fatalf("expected 1 accepted image, got %d", len(images))
	}
	if images[0].MimeType != "image/png" {
		t.Fatalf("unexpected mime: %s", images[0].MimeType)
	}
	if result.Text() != "page loaded" {
		t.Fatalf("unexpected text: %q", result.Text())
	}
}
