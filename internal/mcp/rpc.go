package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/browserbench/browserbench/internal/logging"
)

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcMetadata struct {
	method string
	tool   string
}

func (m rpcMetadata) label() string {
	if strings.TrimSpace(m.tool) != "" {
		return m.tool
	}
	return m.method
}

func (s *Session) nextID() int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq
}

// writeFrame emits one Content-Length framed JSON-RPC message.
func (s *Session) writeFrame(data []byte) error {
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

// readMessage reads one framed message, honoring context cancellation by
// abandoning the blocking read.
func (s *Session) readMessage(ctx context.Context) (jsonrpcResponse, error) {
	type result struct {
		resp jsonrpcResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		r, err := s.readMessageBlocking()
		done <- result{resp: r, err: err}
	}()

	select {
	case <-ctx.Done():
		return jsonrpcResponse{}, ctx.Err()
	case res := <-done:
		return res.resp, res.err
	}
}

func (s *Session) readMessageBlocking() (jsonrpcResponse, error) {
	headers := make(map[string]string)
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return jsonrpcResponse{}, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if idx := strings.IndexByte(line, ':'); idx >= 0 {
			headers[strings.ToLower(strings.TrimSpace(line[:idx]))] = strings.TrimSpace(line[idx+1:])
		}
	}

	cl, ok := headers["content-length"]
	if !ok {
		return jsonrpcResponse{}, fmt.Errorf("missing Content-Length header")
	}

	var length int
	if _, err := fmt.Sscanf(cl, "%d", &length); err != nil {
		return jsonrpcResponse{}, fmt.Errorf("invalid Content-Length: %w", err)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return jsonrpcResponse{}, err
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return jsonrpcResponse{}, err
	}
	return resp, nil
}

// rpcCall sends one request and waits for its response. Server notifications
// (messages without an id) arriving in between are logged and skipped, which
// keeps the consumer processing tool events strictly in arrival order.
func (s *Session) rpcCall(ctx context.Context, method string, params map[string]any, meta rpcMetadata) (jsonrpcResponse, error) {
	s.rpcMu.Lock()
	defer s.rpcMu.Unlock()

	id := s.nextID()
	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		payload["params"] = params
	}
	if meta.method == "" {
		meta.method = method
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return jsonrpcResponse{}, err
	}
	logging.LogRequest("BENCH->MCP", s.endpointLabel(), "", meta.label(), data)

	if err := s.writeFrame(data); err != nil {
		return jsonrpcResponse{}, err
	}

	for {
		resp, err := s.readMessage(ctx)
		if err != nil {
			return jsonrpcResponse{}, err
		}
		if len(resp.ID) == 0 {
			logging.LogEvent("MCP notification: method=%s", resp.Method)
			continue
		}

		if raw, marshalErr := json.Marshal(resp); marshalErr == nil {
			logging.LogRequest("MCP->BENCH", s.endpointLabel(), "", meta.label(), raw)
		}

		if resp.Error != nil {
			return jsonrpcResponse{}, fmt.Errorf("mcp %s: %s (code %d)", meta.label(), resp.Error.Message, resp.Error.Code)
		}
		return resp, nil
	}
}

func decodeToolList(result json.RawMessage) ([]ToolDescriptor, error) {
	if len(result) == 0 {
		return nil, nil
	}
	var payload struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, err
	}
	return payload.Tools, nil
}

func decodeToolResult(result json.RawMessage) (*ToolResult, error) {
	if len(result) == 0 {
		return &ToolResult{}, nil
	}
	var payload ToolResult
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
