package harness

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/browserbench/browserbench/internal/mcp"
)

// toolInvocation is the single action the model is asked to emit per turn.
type toolInvocation struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// parseToolInvocation extracts the first JSON object from a model reply.
// Models wrap answers in prose or code fences often enough that a strict
// Unmarshal of the whole reply would reject valid turns.
func parseToolInvocation(reply string) (*toolInvocation, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var inv toolInvocation
	if err := json.Unmarshal([]byte(reply[start:end+1]), &inv); err != nil {
		return nil, fmt.Errorf("decoding tool invocation: %w", err)
	}
	if inv.Tool == "" {
		return nil, fmt.Errorf("tool invocation missing tool name")
	}
	if inv.Arguments == nil {
		inv.Arguments = map[string]any{}
	}
	return &inv, nil
}

// validateInvocation checks the model's arguments against the tool's input
// schema when the server published one. Unknown tools are rejected outright.
func validateInvocation(inv *toolInvocation, tools []mcp.ToolDescriptor) error {
	var descriptor *mcp.ToolDescriptor
	for i := range tools {
		if tools[i].Name == inv.Tool {
			descriptor = &tools[i]
			break
		}
	}
	if descriptor == nil {
		return fmt.Errorf("model requested unknown tool %q", inv.Tool)
	}
	if len(descriptor.InputSchema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(descriptor.InputSchema)
	documentLoader := gojsonschema.NewGoLoader(inv.Arguments)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating arguments for %q: %w", inv.Tool, err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("arguments for %q rejected by schema: %s", inv.Tool, strings.Join(issues, "; "))
	}
	return nil
}

// toolCatalog renders the server's tool list for a text-only prompt.
func toolCatalog(tools []mcp.ToolDescriptor) string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name, tool.Description)
	}
	return b.String()
}
