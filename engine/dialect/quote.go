package dialect

import (
	"strings"

	"github.com/omniql-engine/flatql/mapping"
)

// Parse rewrites identifier quoting in raw from one style to another.
// Single-quoted string literals are copied untouched.
func Parse(raw string, from, to mapping.QuoteStyle) string {
	if from.Open == "" || from == to {
		return raw
	}
	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; i < len(raw); {
		switch {
		case raw[i] == '\'':
			end := skipString(raw, i)
			sb.WriteString(raw[i:end])
			i = end
		case strings.HasPrefix(raw[i:], from.Open):
			ident, end := readQuoted(raw, i+len(from.Open), from.Close)
			sb.WriteString(quotePart(ident, to))
			i = end
		default:
			sb.WriteByte(raw[i])
			i++
		}
	}
	return sb.String()
}

// CountPlaceholders counts the ? markers outside string literals.
func CountPlaceholders(s string) int {
	n := 0
	for i := 0; i < len(s); {
		switch s[i] {
		case '\'':
			i = skipString(s, i)
		case '?':
			n++
			i++
		default:
			i++
		}
	}
	return n
}

// skipString returns the index just past the literal opened at s[start].
// Doubled quotes inside the literal are escapes.
func skipString(s string, start int) int {
	i := start + 1
	for i < len(s) {
		if s[i] == '\'' {
			if i+1 < len(s) && s[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

// readQuoted reads an identifier body up to close, unescaping doubled
// closers. It returns the body and the index just past the closer.
func readQuoted(s string, start int, close string) (string, int) {
	var sb strings.Builder
	i := start
	for i < len(s) {
		if strings.HasPrefix(s[i:], close) {
			if strings.HasPrefix(s[i+len(close):], close) {
				sb.WriteString(close)
				i += 2 * len(close)
				continue
			}
			return sb.String(), i + len(close)
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String(), len(s)
}

// replacePlaceholders calls mark for every ? outside string literals and
// splices in its result.
func replacePlaceholders(s string, mark func(i int) string) string {
	var sb strings.Builder
	n := 0
	for i := 0; i < len(s); {
		switch s[i] {
		case '\'':
			end := skipString(s, i)
			sb.WriteString(s[i:end])
			i = end
		case '?':
			sb.WriteString(mark(n))
			n++
			i++
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}
