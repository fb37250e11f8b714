package pipeline

import (
	"encoding/json"
	"strings"
)

// extractJSONObject locates a JSON object embedded in raw model output and
// parses it. Models routinely surround the payload with prose or Markdown
// fences despite instructions, so the text is cleaned first and then the
// largest bracketed region (first '{' to last '}') is taken.
//
// This is a heuristic, not a parser: prose containing stray braces can make
// it mis-extract. It deliberately does NOT attempt to repair malformed JSON;
// the caller decides what a parse failure falls back to.
func extractJSONObject(raw string) (map[string]interface{}, error) {
	s := stripFences(raw)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ExtractionError{Reason: "no JSON object found in model output"}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(s[start:end+1]), &parsed); err != nil {
		return nil, &ExtractionError{Reason: "invalid JSON in model output", Err: err}
	}

	return parsed, nil
}

// stripFences removes ```json ... ``` or ``` ... ``` wrappers if the model
// ignored the no-Markdown instruction.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)

		// Remove the trailing fence if present.
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}

	return strings.TrimSpace(s)
}
