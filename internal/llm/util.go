package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers from JSON output.
// Models frequently wrap structured responses in ```json fences even when
// asked not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// DecodeObject parses a JSON response into a generic object. On total parse
// failure it returns an empty object rather than an error: callers that treat
// the result as advisory (quality reviews, patch lists) degrade gracefully
// instead of failing the whole step.
func DecodeObject(text string) map[string]any {
	cleaned := CleanJSONBlock(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return map[string]any{}
	}
	if obj == nil {
		return map[string]any{}
	}
	return obj
}
