// Package parser reads the textual forms of conditions, orderings and joins
// ("age >= 18", "name DESC", "LEFT orders o ON u.id = o.user_id") into the
// argument shapes the builder accepts.
package parser

import (
	"fmt"
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/lexer"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// Parser is a recursive descent parser over lexer tokens.
type Parser struct {
	input  string
	tokens []lexer.Token
	pos    int
}

// New tokenizes input and returns a parser positioned at the first token.
func New(input string) (*Parser, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return &Parser{input: input, tokens: tokens}, nil
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ParseCondition reads "column OP value" into builder arguments:
// ("age", ">", int64(30)), ("city", "IN", []any{"Oslo", "Rome"}) or
// ("city", "IS_NULL"). IN takes a parenthesised or comma-separated list,
// BETWEEN takes "low AND high" or "low,high".
func ParseCondition(expr string) ([]any, error) {
	p, err := New(expr)
	if err != nil {
		return nil, wrap("parser.condition", expr, err)
	}
	args, err := p.parseCondition()
	if err != nil {
		return nil, wrap("parser.condition", expr, err)
	}
	if !p.isAtEnd() {
		return nil, wrap("parser.condition", expr, p.error(fmt.Sprintf("unexpected '%s' after condition", p.current().Value)))
	}
	return args, nil
}

// ParseOrder reads "column [ASC|DESC]". The direction defaults to ASC.
func ParseOrder(expr string) (string, string, error) {
	p, err := New(expr)
	if err != nil {
		return "", "", wrap("parser.order", expr, err)
	}
	column, err := p.parseColumn()
	if err != nil {
		return "", "", wrap("parser.order", expr, err)
	}
	direction := "ASC"
	if !p.isAtEnd() {
		tok := p.advance()
		direction = strings.ToUpper(tok.Value)
		if tok.Type != lexer.TOKEN_IDENTIFIER || (direction != "ASC" && direction != "DESC") {
			return "", "", wrap("parser.order", expr, lexer.NewParseError(tok, fmt.Sprintf("expected ASC or DESC, got '%s'", tok.Value)))
		}
	}
	if !p.isAtEnd() {
		return "", "", wrap("parser.order", expr, p.error(fmt.Sprintf("unexpected '%s' after direction", p.current().Value)))
	}
	return column, direction, nil
}

// ParseJoin reads "KIND [OUTER] [JOIN] table [alias] [ON a OP b]". FULL is
// accepted for OUTER. The ON side names columns on both sides.
func ParseJoin(expr string) (models.JoinKind, string, []any, error) {
	p, err := New(expr)
	if err != nil {
		return "", "", nil, wrap("parser.join", expr, err)
	}
	kind, source, on, err := p.parseJoin()
	if err != nil {
		return "", "", nil, wrap("parser.join", expr, err)
	}
	return kind, source, on, nil
}

// =============================================================================
// GRAMMAR
// =============================================================================

func (p *Parser) parseCondition() ([]any, error) {
	column, err := p.parseColumn()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOperator()
	if err != nil {
		return nil, err
	}

	switch mapping.GetOperatorCategory(op) {
	case "NULLCHECK":
		return []any{column, op}, nil
	case "MULTI_VALUE":
		values, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return []any{column, op, values}, nil
	case "RANGE":
		low, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if !p.match(lexer.TOKEN_COMMA) && !p.matchKeyword("AND") {
			return nil, p.error(fmt.Sprintf("%s takes \"low AND high\"", op))
		}
		high, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return []any{column, op, []any{low, high}}, nil
	default:
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return []any{column, op, value}, nil
	}
}

// parseColumn reads a column name or an aggregate call such as COUNT(*).
// Aggregates keep their source text.
func (p *Parser) parseColumn() (string, error) {
	tok := p.current()
	if tok.Type != lexer.TOKEN_IDENTIFIER {
		return "", p.error(fmt.Sprintf("expected column, got '%s'", tok.Value))
	}
	p.advance()
	if p.current().Type != lexer.TOKEN_LPAREN {
		return tok.Value, nil
	}

	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Type {
		case lexer.TOKEN_LPAREN:
			depth++
		case lexer.TOKEN_RPAREN:
			depth--
		}
		if depth == 0 {
			return p.input[tok.Position:p.previous().End], nil
		}
	}
	return "", p.error(fmt.Sprintf("unclosed call to %s", tok.Value))
}

// parseOperator reads a symbolic operator or a keyword operator of up to
// three words (IS NOT NULL) and returns its canonical name.
func (p *Parser) parseOperator() (string, error) {
	tok := p.current()
	if tok.Type == lexer.TOKEN_OPERATOR {
		p.advance()
		return tok.Value, nil
	}
	if tok.Type != lexer.TOKEN_KEYWORD {
		return "", p.unknownOperator(tok)
	}

	words := []string{p.advance().Value}
	switch words[0] {
	case "IS":
		if p.matchKeyword("NOT") {
			words = append(words, "NOT")
		}
		if !p.matchKeyword("NULL") {
			return "", p.error("expected NULL after IS")
		}
		words = append(words, "NULL")
	case "NOT":
		next := p.current()
		if next.Type != lexer.TOKEN_KEYWORD {
			return "", p.error(fmt.Sprintf("expected IN, LIKE, ILIKE or BETWEEN after NOT, got '%s'", next.Value))
		}
		words = append(words, p.advance().Value)
	}

	op, ok := mapping.NormalizeOperator(strings.Join(words, " "))
	if !ok {
		return "", p.unknownOperator(tok)
	}
	return op, nil
}

// parseList reads "(a, b)" or "a, b". An empty pair of parentheses is an
// empty list.
func (p *Parser) parseList() ([]any, error) {
	values := []any{}
	if p.match(lexer.TOKEN_LPAREN) {
		if p.match(lexer.TOKEN_RPAREN) {
			return values, nil
		}
		for {
			v, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if p.match(lexer.TOKEN_RPAREN) {
				return values, nil
			}
			if !p.match(lexer.TOKEN_COMMA) {
				return nil, p.error("expected ',' or ')' in list")
			}
		}
	}

	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.match(lexer.TOKEN_COMMA) {
			return values, nil
		}
	}
}

// parseLiteral reads one value. Quoted text is always a string, NULL is nil
// and a bare word is taken as a string.
func (p *Parser) parseLiteral() (any, error) {
	tok := p.current()
	switch tok.Type {
	case lexer.TOKEN_STRING:
		p.advance()
		return tok.Value, nil
	case lexer.TOKEN_NUMBER, lexer.TOKEN_BOOLEAN:
		p.advance()
		return models.InferScalar(tok.Value), nil
	case lexer.TOKEN_IDENTIFIER:
		p.advance()
		return tok.Value, nil
	case lexer.TOKEN_KEYWORD:
		if tok.Is("NULL") {
			p.advance()
			return nil, nil
		}
	}
	if tok.Type == lexer.TOKEN_EOF {
		return nil, p.error("expected value, got end of input")
	}
	return nil, p.error(fmt.Sprintf("expected value, got '%s'", tok.Value))
}

func (p *Parser) parseJoin() (models.JoinKind, string, []any, error) {
	tok := p.current()
	if tok.Type != lexer.TOKEN_IDENTIFIER {
		return "", "", nil, p.error(fmt.Sprintf("expected join kind, got '%s'", tok.Value))
	}
	p.advance()

	kind := models.JoinKind(strings.ToUpper(tok.Value))
	switch kind {
	case models.InnerJoin, models.CrossJoin, models.SelfJoin:
	case models.LeftJoin, models.RightJoin, models.OuterJoin, "FULL":
		if kind == "FULL" {
			kind = models.OuterJoin
		}
		p.matchWord("OUTER")
	default:
		return "", "", nil, lexer.NewParseError(tok, fmt.Sprintf("unknown join kind '%s'", tok.Value))
	}
	p.matchWord("JOIN")

	var source []string
	for !p.isAtEnd() && !p.checkWord("ON") {
		t := p.current()
		if t.Type != lexer.TOKEN_IDENTIFIER {
			return "", "", nil, p.error(fmt.Sprintf("expected table name, got '%s'", t.Value))
		}
		source = append(source, p.advance().Value)
	}
	if len(source) == 0 || len(source) > 2 {
		return "", "", nil, p.error("expected \"table [alias]\"")
	}
	if !p.matchWord("ON") {
		return kind, strings.Join(source, " "), nil, nil
	}

	left, err := p.parseColumn()
	if err != nil {
		return "", "", nil, err
	}
	opTok := p.current()
	if opTok.Type != lexer.TOKEN_OPERATOR {
		return "", "", nil, p.unknownOperator(opTok)
	}
	p.advance()
	right, err := p.parseColumn()
	if err != nil {
		return "", "", nil, err
	}
	if !p.isAtEnd() {
		return "", "", nil, p.error(fmt.Sprintf("unexpected '%s' after join predicate", p.current().Value))
	}
	return kind, strings.Join(source, " "), []any{left, opTok.Value, right}, nil
}

// =============================================================================
// TOKEN NAVIGATION
// =============================================================================

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) isAtEnd() bool {
	return p.current().Type == lexer.TOKEN_EOF
}

// match consumes the current token if it has the given type.
func (p *Parser) match(tokenType lexer.TokenType) bool {
	if p.current().Type == tokenType {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchKeyword(kw string) bool {
	if p.current().Is(kw) {
		p.advance()
		return true
	}
	return false
}

// checkWord compares an identifier case-insensitively. ON, JOIN and OUTER
// are not condition keywords, so they arrive as identifiers.
func (p *Parser) checkWord(word string) bool {
	tok := p.current()
	return tok.Type == lexer.TOKEN_IDENTIFIER && strings.EqualFold(tok.Value, word)
}

func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.advance()
		return true
	}
	return false
}

// =============================================================================
// ERROR HANDLING
// =============================================================================

func (p *Parser) error(message string) error {
	return lexer.NewParseError(p.current(), message)
}

func (p *Parser) unknownOperator(tok lexer.Token) error {
	if tok.Type == lexer.TOKEN_EOF {
		return p.error("expected operator, got end of input")
	}
	return lexer.NewUnknownTokenError(tok)
}

// wrap turns a parse error into a query error carrying the offending text.
func wrap(op, expr string, err error) error {
	qerr := dberrors.NewQueryError(op, "invalid expression %q", expr).WithCause(err)
	if perr, ok := err.(*lexer.ParseError); ok {
		if suggestion := lexer.SuggestSimilar(perr.Token); suggestion != "" {
			qerr = qerr.WithHint(fmt.Sprintf("did you mean %s?", suggestion))
		}
	}
	return qerr
}
