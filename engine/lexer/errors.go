package lexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/omniql-engine/flatql/mapping"
)

// ParseError represents an error with position info
type ParseError struct {
	Message  string
	Position int
	Token    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// NewParseError creates a new parse error
func NewParseError(token Token, message string) *ParseError {
	return &ParseError{
		Message:  message,
		Position: token.Position,
		Token:    token.Value,
	}
}

// NewUnknownTokenError creates error with suggestion
func NewUnknownTokenError(token Token) *ParseError {
	msg := fmt.Sprintf("unknown token '%s'", token.Value)
	if suggestion := SuggestSimilar(token.Value); suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
	}
	return NewParseError(token, msg)
}

// vocabulary is every word a suggestion can name, sorted so ties resolve
// the same way on every run.
var vocabulary = buildVocabulary()

func buildVocabulary() []string {
	seen := map[string]bool{"AND": true, "OR": true, "ASC": true, "DESC": true}
	for op := range mapping.OperatorCategories {
		seen[strings.ReplaceAll(op, "_", " ")] = true
	}
	for fn := range mapping.AggregateFunctions {
		seen[fn] = true
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// commonOperators are checked first; short keywords like IN would otherwise
// lose to longer words at the same distance.
var commonOperators = []string{"IN", "LIKE", "BETWEEN", "AND", "OR", "NOT IN", "IS NULL"}

// SuggestSimilar finds the closest operator or keyword within two edits,
// or "" when nothing is close.
func SuggestSimilar(unknown string) string {
	unknown = strings.ToUpper(strings.Join(strings.Fields(unknown), " "))
	if !strings.ContainsAny(unknown, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return ""
	}

	var bestMatch string
	bestDistance := 999
	maxDistance := 2

	for _, op := range commonOperators {
		dist := levenshtein(unknown, op)
		if dist <= maxDistance && dist < bestDistance {
			bestDistance = dist
			bestMatch = op
		}
	}
	for _, w := range vocabulary {
		dist := levenshtein(unknown, w)
		if dist <= maxDistance && dist < bestDistance {
			bestDistance = dist
			bestMatch = w
		}
	}
	if bestMatch == unknown {
		return ""
	}
	return bestMatch
}

// levenshtein calculates edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
