package parser

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when no balanced {...} region exists in a reply.
var ErrNoJSONObject = errors.New("no JSON object found in model response")

var fencePattern = regexp.MustCompile("(?s)```(?i:json)?\\s*\\n?(.*?)\\n?```")

// RecoverJSON extracts the JSON object embedded in a free-text model reply.
// The first fenced code block is preferred; otherwise the first balanced
// {...} region is used. Comments and trailing commas are removed from the
// result.
func RecoverJSON(raw string) (string, error) {
	obj, ok := "", false
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		obj, ok = balancedObject(m[1])
	}
	if !ok {
		obj, ok = balancedObject(raw)
	}
	if !ok {
		return "", ErrNoJSONObject
	}
	return stripTrailingCommas(stripComments(obj)), nil
}

// balancedObject returns the text from the first '{' up to its matching '}'.
// Braces inside string literals and comments do not count.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
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
		case '/':
			if skip := commentLen(s[i:]); skip > 0 {
				i += skip - 1
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// commentLen returns the length of the comment starting at s[0], or 0 when s
// does not start with a comment. A line comment excludes its newline; an
// unterminated block comment runs to the end of s.
func commentLen(s string) int {
	switch {
	case strings.HasPrefix(s, "//"):
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			return nl
		}
		return len(s)
	case strings.HasPrefix(s, "/*"):
		if end := strings.Index(s[2:], "*/"); end >= 0 {
			return end + 4
		}
		return len(s)
	}
	return 0
}

func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
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
			b.WriteByte(c)
			continue
		}

		if c == '/' {
			if skip := commentLen(s[i:]); skip > 0 {
				i += skip - 1
				continue
			}
		}
		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
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
			b.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
