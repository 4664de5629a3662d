// Package utils holds small helpers for handling chat model output.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSON is returned when a response contains no JSON object.
	ErrNoJSON = errors.New("no JSON object found in response")

	// Fix trailing commas before closing brace/bracket
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

	// Fix single quotes for object keys: {'key': -> {"key":
	singleQuoteKeyRegex = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)
)

// ExtractJSONObject returns the first JSON object found in a chat model
// response. Markdown fences and trailing prose are ignored, and a few common
// syntax slips are repaired before giving up.
func ExtractJSONObject(response string) (string, error) {
	cleaned := cleanLLMResponse(response)
	if cleaned == "" {
		return "", ErrNoJSON
	}

	// A JSON string holding the object, as some models double-encode.
	if strings.HasPrefix(cleaned, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(cleaned), &inner); err == nil {
			return ExtractJSONObject(inner)
		}
	}

	// A bare top-level array is the wrong shape; brackets in leading prose are not.
	if strings.HasPrefix(cleaned, "[") {
		return "", fmt.Errorf("expected a JSON object, found an array")
	}
	idx := strings.IndexByte(cleaned, '{')
	if idx == -1 {
		return "", ErrNoJSON
	}
	part := cleaned[idx:]

	obj, err := firstValue(part)
	if err == nil {
		return obj, nil
	}
	if repaired := repairJSON(part); repaired != part {
		if obj, err2 := firstValue(repaired); err2 == nil {
			return obj, nil
		}
	}
	return "", fmt.Errorf("parse JSON: %w", err)
}

// firstValue decodes a single JSON value and ignores whatever follows it.
func firstValue(s string) (string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// repairJSON fixes syntax errors chat models commonly make: raw control
// characters inside strings, trailing commas and single-quoted keys.
func repairJSON(input string) string {
	result := sanitizeControlChars(input)
	result = trailingCommaRegex.ReplaceAllString(result, `$1`)
	result = singleQuoteKeyRegex.ReplaceAllString(result, `$1"$2"$3`)
	return result
}

// sanitizeControlChars escapes literal control characters inside JSON strings.
func sanitizeControlChars(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))

	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c < 0x20:
			switch c {
			case '\t':
				sb.WriteString(`\t`)
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				sb.WriteString(`\r`)
			default:
				fmt.Fprintf(&sb, `\u%04x`, c)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// cleanLLMResponse strips surrounding whitespace and markdown code fences.
func cleanLLMResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
