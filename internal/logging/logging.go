// Package logging provides the shared event and wire logging used by the
// benchmark harness whenever it talks to the MCP server or a model endpoint.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init routes the standard logger to stdout and, when logPath is non-empty,
// tees output into that file as well. Parent directories are created.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{os.Stdout}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close detaches and closes the configured log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent records a single formatted event line.
func LogEvent(format string, args ...any) {
	log.Println(fmt.Sprintf(format, args...))
}

// LogWarning records a non-fatal condition, such as a failed best-effort
// verification screenshot.
func LogWarning(format string, args ...any) {
	log.Println("[WARN] " + fmt.Sprintf(format, args...))
}

// LogRequest records one wire exchange. Direction is a label such as
// "BENCH->MCP" or "LLM->BENCH"; approach and tool are contextual and may be
// empty.
func LogRequest(direction, endpoint, approach, tool string, payload any) {
	log.Println(buildRequestMessage(direction, endpoint, approach, tool, payload))
}

func buildRequestMessage(direction, endpoint, approach, tool string, payload any) string {
	parts := []string{fmt.Sprintf("[%s]", strings.ToUpper(strings.TrimSpace(direction)))}
	if endpoint = strings.TrimSpace(endpoint); endpoint == "" {
		endpoint = "unknown"
	}
	parts = append(parts, "endpoint="+endpoint)
	if approach = strings.TrimSpace(approach); approach != "" {
		parts = append(parts, "approach="+approach)
	}
	if tool = strings.TrimSpace(tool); tool != "" {
		parts = append(parts, "tool="+tool)
	}
	parts = append(parts, "payload="+formatPayload(payload))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
