// Package llm provides the HTTP client for Ollama-compatible chat endpoints.
// The harness only needs streamed text fragments plus the final token-usage
// metadata; everything else about the response is ignored.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/browserbench/browserbench/internal/appconfig"
	"github.com/browserbench/browserbench/internal/logging"
)

// Message is a single chat message. Images carry inline base64 payloads for
// vision-capable models.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Metadata is the final accounting record of one chat exchange.
type Metadata struct {
	Model         string
	Done          bool
	PromptTokens  int
	OutputTokens  int
	TotalDuration int64
}

// Request encapsulates one chat invocation.
type Request struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	Stream       bool
}

// Callbacks receive streamed fragments in arrival order and the final
// metadata once the stream is exhausted.
type Callbacks struct {
	OnChunk    func(text string) error
	OnComplete func(meta Metadata) error
}

// Client talks to a single Ollama-compatible host.
type Client struct {
	host    string
	client  *http.Client
	timeout time.Duration
}

// New constructs a Client configured with the application's request timeout.
func New(cfg *appconfig.Config) *Client {
	timeout := cfg.RequestTimeout()
	return &Client{
		host: strings.TrimRight(cfg.ModelHost, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
	}
}

// streamChunk is one element of the /api/chat response stream.
type streamChunk struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool  `json:"done"`
	TotalDuration   int64 `json:"total_duration"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
}

func (c *streamChunk) metadata(fallbackModel string) Metadata {
	model := c.Model
	if model == "" {
		model = fallbackModel
	}
	return Metadata{
		Model:         model,
		Done:          c.Done,
		PromptTokens:  c.PromptEvalCount,
		OutputTokens:  c.EvalCount,
		TotalDuration: c.TotalDuration,
	}
}

// Chat issues a chat request and forwards output to the provided callbacks.
// In streaming mode fragments are delivered strictly in arrival order; the
// caller stops consuming by returning an error from OnChunk, which aborts
// the exchange.
func (c *Client) Chat(ctx context.Context, req Request, callbacks Callbacks) error {
	messages := req.Messages
	if req.SystemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   req.Stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logging.LogRequest("BENCH->LLM", c.host, "", "", summarizePayload(req, len(body)))

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest("LLM->BENCH", c.host, "", "", raw)
		return fmt.Errorf("llm: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if !req.Stream {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var chunk streamChunk
		if err := json.Unmarshal(raw, &chunk); err != nil {
			return err
		}
		logging.LogRequest("LLM->BENCH", c.host, "", "", map[string]any{
			"prompt_tokens": chunk.PromptEvalCount,
			"output_tokens": chunk.EvalCount,
		})
		if callbacks.OnChunk != nil && chunk.Message.Content != "" {
			if err := callbacks.OnChunk(chunk.Message.Content); err != nil {
				return err
			}
		}
		if callbacks.OnComplete != nil {
			return callbacks.OnComplete(chunk.metadata(req.Model))
		}
		return nil
	}

	decoder := json.NewDecoder(resp.Body)
	var final streamChunk
	for {
		var chunk streamChunk
		if err := decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if callbacks.OnChunk != nil && chunk.Message.Content != "" {
			if err := callbacks.OnChunk(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			final = chunk
			break
		}
	}

	logging.LogRequest("LLM->BENCH", c.host, "", "", map[string]any{
		"prompt_tokens": final.PromptEvalCount,
		"output_tokens": final.EvalCount,
	})
	if callbacks.OnComplete != nil {
		return callbacks.OnComplete(final.metadata(req.Model))
	}
	return nil
}

// Complete is the non-streaming convenience form of Chat: it returns the full
// response text and the final metadata.
func (c *Client) Complete(ctx context.Context, req Request) (string, Metadata, error) {
	req.Stream = false
	var (
		out  strings.Builder
		meta Metadata
	)
	err := c.Chat(ctx, req, Callbacks{
		OnChunk: func(text string) error {
			out.WriteString(text)
			return nil
		},
		OnComplete: func(m Metadata) error {
			meta = m
			return nil
		},
	})
	if err != nil {
		return "", Metadata{}, err
	}
	return out.String(), meta, nil
}

// summarizePayload keeps request logs readable: inline image payloads are
// reported by count and size instead of raw base64.
func summarizePayload(req Request, bodyBytes int) map[string]any {
	images := 0
	for _, msg := range req.Messages {
		images += len(msg.Images)
	}
	return map[string]any{
		"model":      req.Model,
		"messages":   len(req.Messages),
		"images":     images,
		"stream":     req.Stream,
		"body_bytes": bodyBytes,
	}
}
