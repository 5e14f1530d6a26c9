package structured

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// RecoverJSON attempts to pull a JSON value out of free-form model text.
// It tries, in order: a direct parse of the trimmed text, the content of
// markdown code fences, the largest brace or bracket delimited span, and a
// parse after stripping any prose preamble before the first delimiter.
func RecoverJSON(text string) (any, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}
	if v, ok := tryParse(trimmed); ok {
		return v, true
	}
	for _, match := range fenceRe.FindAllStringSubmatch(trimmed, -1) {
		if v, ok := tryParse(strings.TrimSpace(match[1])); ok {
			return v, true
		}
	}
	if span := largestSpan(trimmed); span != "" {
		if v, ok := tryParse(span); ok {
			return v, true
		}
	}
	if stripped := stripPreamble(trimmed); stripped != "" {
		if v, ok := tryParse(stripped); ok {
			return v, true
		}
	}
	return nil, false
}

func tryParse(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	return nil, false
}

// largestSpan returns the widest {...} or [...] substring, preferring the one
// that covers more of the text when both delimiters are present.
func largestSpan(s string) string {
	obj := delimitedSpan(s, '{', '}')
	arr := delimitedSpan(s, '[', ']')
	if len(obj) >= len(arr) {
		return obj
	}
	return arr
}

func delimitedSpan(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// stripPreamble drops leading prose up to and including the first newline that
// precedes a JSON delimiter, handling outputs like "Here is the result:\n{...}".
func stripPreamble(s string) string {
	idx := strings.IndexAny(s, "{[")
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(s[idx:])
}
