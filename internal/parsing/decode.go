// Package parsing recovers structured records from free-form model output.
package parsing

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Method records which recovery tier produced a record.
type Method string

const (
	MethodBraceSpan  Method = "brace_span"
	MethodWholeText  Method = "whole_text"
	MethodBackfilled Method = "backfilled"
	MethodFallback   Method = "fallback"
)

var (
	openFenceRe  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	closeFenceRe = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripFences removes a leading ``` fence (with optional language tag) and a trailing one.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = openFenceRe.ReplaceAllString(text, "")
	}
	text = closeFenceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Decode extracts a JSON object from text. It tolerates markdown fences and prose
// around the object: the span from the first '{' to the last '}' is tried first,
// the whole text otherwise.
func Decode(text string) (map[string]any, Method, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, "", &ParseError{Message: "empty input"}
	}

	candidate, method := cleaned, MethodWholeText
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		candidate, method = cleaned[start:end+1], MethodBraceSpan
	}

	if !gjson.Valid(candidate) {
		return nil, "", &ParseError{Message: "invalid JSON (" + string(method) + ")"}
	}

	record, ok := gjson.Parse(candidate).Value().(map[string]any)
	if !ok {
		return nil, "", &ParseError{Message: "JSON value is not an object"}
	}
	return record, method, nil
}
