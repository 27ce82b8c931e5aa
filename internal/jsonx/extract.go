// Package jsonx extracts JSON objects from model output.
//
// Structured outputs usually arrive as a bare JSON object, but models
// occasionally wrap them in markdown fences or add a sentence before or after.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract returns the JSON object contained in text.
// It tries, in order: the whole text, the text with markdown fences removed,
// and the span between the first '{' and the last '}'.
func Extract(text string) (string, error) {
	if json.Valid([]byte(text)) {
		return text, nil
	}

	stripped := stripFences(text)
	if json.Valid([]byte(stripped)) {
		return stripped, nil
	}

	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start != -1 && end > start {
		candidate := stripped[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	preview := text
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no valid JSON object in response: %q", preview)
}

// Decode extracts a JSON object from text and unmarshals it into T.
func Decode[T any](text string) (T, error) {
	var out T
	raw, err := Extract(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("unmarshal structured output: %w", err)
	}
	return out, nil
}

// stripFences removes a leading ```json / ``` fence and a trailing ``` fence.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "```json"):
		trimmed = strings.TrimPrefix(trimmed, "```json")
	case strings.HasPrefix(trimmed, "```"):
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
