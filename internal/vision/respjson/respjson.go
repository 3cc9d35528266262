package respjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract pulls a JSON object out of a model text response. Models are told
// to answer with bare JSON but routinely wrap it in markdown code fences or
// pad it with prose, so we strip fences first and fall back to scanning for
// a balanced top-level object.
func Extract(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}

	if strings.HasPrefix(text, "```") {
		text = stripCodeFence(text)
	}

	if strings.HasPrefix(text, "{") && json.Valid([]byte(text)) {
		return text, nil
	}

	if obj := scanObject(text); obj != "" && json.Valid([]byte(obj)) {
		return obj, nil
	}

	return "", fmt.Errorf("no JSON object found in model response")
}

// Unmarshal extracts the JSON object from raw and decodes it into v.
func Unmarshal(raw string, v interface{}) error {
	obj, err := Extract(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

// stripCodeFence removes a leading ```json (or bare ```) fence and the
// trailing ``` if present.
func stripCodeFence(text string) string {
	text = strings.TrimPrefix(text, "```")
	// Drop a language tag like "json" on the fence line.
	if idx := strings.IndexByte(text, '\n'); idx != -1 {
		firstLine := strings.TrimSpace(text[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx != -1 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// scanObject returns the first balanced top-level {...} in text, tracking
// string literals so braces inside values don't break the count.
func scanObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
