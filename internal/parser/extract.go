// Package parser pulls JSON values out of free-form model output.
//
// Strategies run in a fixed order:
//
//  1. the whole text as JSON
//  2. the body of a fenced code block
//  3. comment-stripped text cut greedily from the first open bracket to the
//     last close bracket, with trailing commas and control characters removed
//  4. the first balanced bracketed region, found by a string-aware depth scan
//
// When 1 or 2 yields a complete object or array, that value decides the result:
// a value of the other shape is an error and 3 and 4 never look inside it.
// Strategy 3 can accept a structurally valid but wrong region when the text
// holds several candidates; strategy 4 only runs once 3 fails.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// Shape is the top-level JSON kind a caller expects.
type Shape int

const (
	Object Shape = iota
	Array
)

func (s Shape) String() string {
	if s == Array {
		return "array"
	}
	return "object"
}

func (s Shape) brackets() (byte, byte) {
	if s == Array {
		return '[', ']'
	}
	return '{', '}'
}

// maxBalancedCandidates bounds the depth scan on pathological inputs.
const maxBalancedCandidates = 64

var (
	fenceRe         = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

type strategy func(text string, shape Shape) (any, bool)

// fallbacks run only when the text is not a complete JSON value.
var fallbacks = []strategy{
	greedy,
	balanced,
}

const strategyCount = 4

// Extract returns the first value of the requested shape found in text.
// The result is map[string]any for Object and []any for Array.
func Extract(text string, shape Shape) (any, error) {
	if v, ok := whole(text); ok {
		if got := shapeOf(v); got != shape {
			return nil, apperr.Parsing("extract json",
				fmt.Errorf("model output is a JSON %s, want %s: %s", got, shape, preview(text)))
		}
		return v, nil
	}
	for _, s := range fallbacks {
		if v, ok := s(text, shape); ok {
			return v, nil
		}
	}
	return nil, apperr.Parsing("extract json",
		fmt.Errorf("no %s found in model output (%d strategies tried): %s", shape, strategyCount, preview(text)))
}

// whole returns the object or array the text (or its first fenced block
// holding one) consists of.
func whole(text string) (any, bool) {
	if v, ok := verbatim(text); ok {
		return v, true
	}
	return fenced(text)
}

// ExtractInto extracts a value of the requested shape and decodes it into v.
func ExtractInto(text string, shape Shape, v any) error {
	raw, err := Extract(text, shape)
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return apperr.Parsing("extract json", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Parsing("decode json", err)
	}
	return nil
}

func verbatim(text string) (any, bool) {
	return parseContainer(strings.TrimSpace(text))
}

func fenced(text string) (any, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseContainer(strings.TrimSpace(m[1])); ok {
			return v, true
		}
	}
	// An unterminated fence still leaves a usable body.
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		body := trimmed[3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		}
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
		return parseContainer(strings.TrimSpace(body))
	}
	return nil, false
}

func greedy(text string, shape Shape) (any, bool) {
	open, closing := shape.brackets()
	cleaned := stripComments(text)
	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, closing)
	if start < 0 || end <= start {
		return nil, false
	}
	return parseShaped(sanitize(cleaned[start:end+1]), shape)
}

func balanced(text string, shape Shape) (any, bool) {
	open, _ := shape.brackets()
	cleaned := stripComments(text)
	tried := 0
	for i := 0; i < len(cleaned) && tried < maxBalancedCandidates; i++ {
		if cleaned[i] != open {
			continue
		}
		end, ok := matchBracket(cleaned, i)
		if !ok {
			continue
		}
		tried++
		if v, ok := parseShaped(sanitize(cleaned[i:end+1]), shape); ok {
			return v, true
		}
	}
	return nil, false
}

// matchBracket returns the index closing the bracket opened at start,
// ignoring brackets inside string literals.
func matchBracket(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}

// stripComments removes // and /* */ comments outside string literals.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					b.WriteByte('\n')
				}
				continue
			case '*':
				endIdx := strings.Index(s[i+2:], "*/")
				if endIdx < 0 {
					return b.String()
				}
				i += endIdx + 3
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func sanitize(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return controlCharRe.ReplaceAllString(s, "")
}

func parseShaped(s string, shape Shape) (any, bool) {
	v, ok := parseContainer(s)
	if !ok || shapeOf(v) != shape {
		return nil, false
	}
	return v, true
}

// parseContainer parses s and keeps only objects and arrays.
func parseContainer(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}

func shapeOf(v any) Shape {
	if _, ok := v.([]any); ok {
		return Array
	}
	return Object
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	const limit = 120
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
