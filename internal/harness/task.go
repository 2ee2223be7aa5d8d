// Package harness orchestrates benchmark runs: it loads the task definition,
// drives one approach at a time through an MCP session, and converts the
// recorded events into result records.
package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Step is one instruction of the benchmark task. Expect, when set, is a
// substring that must appear in the browser state after the step completes.
type Step struct {
	Instruction string `json:"instruction"`
	Expect      string `json:"expect,omitempty"`
}

// Task is the multi-step browser task every approach is measured against.
type Task struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Steps []Step `json:"steps"`
}

// taskSchema validates task definition files before they are trusted.
var taskSchema = map[string]any{
	"type":     "object",
	"required": []string{"name", "url", "steps"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string", "minLength": 1},
		"url":  map[string]any{"type": "string", "minLength": 1},
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"instruction"},
				"properties": map[string]any{
					"instruction": map[string]any{"type": "string", "minLength": 1},
					"expect":      map[string]any{"type": "string"},
				},
			},
		},
	},
}

// LoadTask reads and validates the task definition at path.
func LoadTask(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task %q: %w", path, err)
	}
	return ParseTask(data)
}

// ParseTask validates raw task JSON against the schema and decodes it.
func ParseTask(data []byte) (*Task, error) {
	schemaLoader := gojsonschema.NewGoLoader(taskSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("task schema validation: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("invalid task definition: %s", strings.Join(errs, ", "))
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}
