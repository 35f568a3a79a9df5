// Package lexer tokenizes condition expressions written as text, such as
// "age >= 18", "city NOT IN ('Oslo', 'Rome')" or "COUNT(*) > 1".
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/omniql-engine/flatql/mapping"
)

// keywords are the words of the operator vocabulary plus junctions.
var keywords = map[string]bool{
	"AND":      true,
	"OR":       true,
	"DISTINCT": true,
}

func init() {
	for op := range mapping.OperatorCategories {
		for _, w := range strings.Split(op, "_") {
			if w != "" && unicode.IsLetter(rune(w[0])) {
				keywords[w] = true
			}
		}
	}
}

// IsKeyword reports whether word (any case) is a keyword.
func IsKeyword(word string) bool {
	return keywords[strings.ToUpper(word)]
}

// Tokenizer converts input string to tokens
type Tokenizer struct {
	input  string
	pos    int
	tokens []Token
}

// Tokenize converts a condition string to tokens, ending with TOKEN_EOF.
func Tokenize(input string) ([]Token, error) {
	t := &Tokenizer{input: input}
	return t.tokenize()
}

func (t *Tokenizer) tokenize() ([]Token, error) {
	for t.pos < len(t.input) {
		if t.skipWhitespace() {
			continue
		}

		ch := t.input[t.pos]

		// Single character tokens
		switch ch {
		case '(':
			t.single(TOKEN_LPAREN)
			continue
		case ')':
			t.single(TOKEN_RPAREN)
			continue
		case ',':
			t.single(TOKEN_COMMA)
			continue
		case '*':
			t.single(TOKEN_STAR)
			continue
		case '\'', '"':
			token, err := t.scanString(ch)
			if err != nil {
				return nil, err
			}
			t.tokens = append(t.tokens, token)
			continue
		}

		if unicode.IsDigit(rune(ch)) || (ch == '-' && t.peekDigit() && t.canStartNegativeNumber()) {
			t.tokens = append(t.tokens, t.scanNumber())
			continue
		}

		if isWordStart(ch) {
			t.tokens = append(t.tokens, t.scanWord())
			continue
		}

		if isOperatorChar(ch) {
			token, err := t.scanOperator()
			if err != nil {
				return nil, err
			}
			t.tokens = append(t.tokens, token)
			continue
		}

		return nil, &ParseError{
			Message:  fmt.Sprintf("unexpected character '%c'", ch),
			Position: t.pos,
		}
	}

	t.tokens = append(t.tokens, Token{Type: TOKEN_EOF, Position: t.pos, End: t.pos})
	return t.tokens, nil
}

func (t *Tokenizer) skipWhitespace() bool {
	skipped := false
	for t.pos < len(t.input) && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
		skipped = true
	}
	return skipped
}

func (t *Tokenizer) single(tokenType TokenType) {
	t.tokens = append(t.tokens, Token{
		Type:     tokenType,
		Value:    t.input[t.pos : t.pos+1],
		Position: t.pos,
		End:      t.pos + 1,
	})
	t.pos++
}

func (t *Tokenizer) peekDigit() bool {
	return t.pos+1 < len(t.input) && unicode.IsDigit(rune(t.input[t.pos+1]))
}

// canStartNegativeNumber is true after an operator, keyword, '(' or ',',
// or at the start of input.
func (t *Tokenizer) canStartNegativeNumber() bool {
	if len(t.tokens) == 0 {
		return true
	}
	switch t.tokens[len(t.tokens)-1].Type {
	case TOKEN_OPERATOR, TOKEN_KEYWORD, TOKEN_LPAREN, TOKEN_COMMA:
		return true
	}
	return false
}

// scanString reads a quoted string. A doubled quote or a backslash escapes
// the quote character.
func (t *Tokenizer) scanString(quote byte) (Token, error) {
	start := t.pos
	t.pos++ // opening quote

	var value strings.Builder
	for t.pos < len(t.input) {
		ch := t.input[t.pos]

		if ch == '\\' && t.pos+1 < len(t.input) {
			t.pos++
			switch t.input[t.pos] {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			default:
				value.WriteByte(t.input[t.pos])
			}
			t.pos++
			continue
		}

		if ch == quote {
			if t.pos+1 < len(t.input) && t.input[t.pos+1] == quote {
				value.WriteByte(quote)
				t.pos += 2
				continue
			}
			t.pos++
			return Token{Type: TOKEN_STRING, Value: value.String(), Position: start, End: t.pos}, nil
		}

		value.WriteByte(ch)
		t.pos++
	}

	return Token{}, &ParseError{
		Message:  fmt.Sprintf("unclosed string, expected %c", quote),
		Position: start,
	}
}

// scanNumber reads an integer or decimal. Digits running into letters
// ("2024-01-01", "3rd") make a bare word instead.
func (t *Tokenizer) scanNumber() Token {
	start := t.pos
	if t.input[t.pos] == '-' {
		t.pos++
	}
	for t.pos < len(t.input) && unicode.IsDigit(rune(t.input[t.pos])) {
		t.pos++
	}
	if t.pos+1 < len(t.input) && t.input[t.pos] == '.' && unicode.IsDigit(rune(t.input[t.pos+1])) {
		t.pos++
		for t.pos < len(t.input) && unicode.IsDigit(rune(t.input[t.pos])) {
			t.pos++
		}
	}
	if t.pos < len(t.input) && isWordChar(t.input[t.pos]) {
		for t.pos < len(t.input) && isWordChar(t.input[t.pos]) {
			t.pos++
		}
		return Token{Type: TOKEN_IDENTIFIER, Value: t.input[start:t.pos], Position: start, End: t.pos}
	}
	return Token{Type: TOKEN_NUMBER, Value: t.input[start:t.pos], Position: start, End: t.pos}
}

func (t *Tokenizer) scanWord() Token {
	start := t.pos
	for t.pos < len(t.input) && isWordChar(t.input[t.pos]) {
		t.pos++
	}
	word := t.input[start:t.pos]
	upper := strings.ToUpper(word)

	switch {
	case upper == "TRUE" || upper == "FALSE":
		return Token{Type: TOKEN_BOOLEAN, Value: strings.ToLower(word), Position: start, End: t.pos}
	case keywords[upper]:
		return Token{Type: TOKEN_KEYWORD, Value: upper, Position: start, End: t.pos}
	}
	return Token{Type: TOKEN_IDENTIFIER, Value: word, Position: start, End: t.pos}
}

func (t *Tokenizer) scanOperator() (Token, error) {
	start := t.pos
	for t.pos < len(t.input) && isOperatorChar(t.input[t.pos]) {
		t.pos++
	}
	op := t.input[start:t.pos]

	if norm, ok := mapping.NormalizeOperator(op); ok {
		return Token{Type: TOKEN_OPERATOR, Value: norm, Position: start, End: t.pos}, nil
	}
	return Token{}, &ParseError{
		Message:  fmt.Sprintf("unknown operator '%s'", op),
		Position: start,
		Token:    op,
	}
}

func isOperatorChar(ch byte) bool {
	return ch == '=' || ch == '!' || ch == '<' || ch == '>'
}

func isWordStart(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_' || ch == '%'
}

// isWordChar admits the characters of dotted names, LIKE patterns and
// simple dates.
func isWordChar(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) ||
		ch == '_' || ch == '.' || ch == '%' || ch == '-' || ch == ':' || ch == '@'
}
