package harness

import "fmt"

// Approach is one browser-automation strategy under comparison.
type Approach string

const (
	// ApproachScreenshot feeds the model raw screenshots of the page.
	ApproachScreenshot Approach = "screenshot"
	// ApproachSemantic relies on the server's semantic tool catalog alone.
	ApproachSemantic Approach = "semantic"
	// ApproachA11y feeds the model the accessibility-tree snapshot as text.
	ApproachA11y Approach = "a11y"
)

// AllApproaches lists the strategies in their canonical comparison order.
func AllApproaches() []Approach {
	return []Approach{ApproachScreenshot, ApproachSemantic, ApproachA11y}
}

// ParseApproach resolves a user-supplied approach name.
func ParseApproach(name string) (Approach, error) {
	switch Approach(name) {
	case ApproachScreenshot, ApproachSemantic, ApproachA11y:
		return Approach(name), nil
	default:
		return "", fmt.Errorf("unknown approach %q (want screenshot, semantic, or a11y)", name)
	}
}

func (a Approach) systemPrompt() string {
	switch a {
	case ApproachScreenshot:
		return "You are a browser automation agent. You receive a screenshot of the current page and one instruction. " +
			"Respond with exactly one JSON object of the form {\"tool\": \"<name>\", \"arguments\": {...}} and nothing else."
	case ApproachA11y:
		return "You are a browser automation agent. You receive the accessibility tree of the current page and one instruction. " +
			"Respond with exactly one JSON object of the form {\"tool\": \"<name>\", \"arguments\": {...}} and nothing else."
	default:
		return "You are a browser automation agent with access to the listed browser tools. " +
			"Respond with exactly one JSON object of the form {\"tool\": \"<name>\", \"arguments\": {...}} and nothing else."
	}
}
