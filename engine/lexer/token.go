package lexer

// TokenType represents the category of a token
type TokenType int

const (
	TOKEN_UNKNOWN    TokenType = iota
	TOKEN_IDENTIFIER           // age, u.name, bare words
	TOKEN_KEYWORD              // IN, NOT, IS, NULL, LIKE, BETWEEN, AND, OR, DISTINCT
	TOKEN_OPERATOR             // = != <> > < >= <= (from mapping.OperatorCategories)
	TOKEN_STRING               // 'John', "hello"
	TOKEN_NUMBER               // 25, -3.14
	TOKEN_BOOLEAN              // true, false
	TOKEN_LPAREN               // (
	TOKEN_RPAREN               // )
	TOKEN_COMMA                // ,
	TOKEN_STAR                 // *
	TOKEN_EOF                  // End of input
)

// Token represents a single token with position info
type Token struct {
	Type     TokenType
	Value    string // Original value, unquoted for strings
	Position int    // Byte offset of the token start
	End      int    // Byte offset just past the token
}

var tokenNames = []string{
	"UNKNOWN",
	"IDENTIFIER",
	"KEYWORD",
	"OPERATOR",
	"STRING",
	"NUMBER",
	"BOOLEAN",
	"LPAREN",
	"RPAREN",
	"COMMA",
	"STAR",
	"EOF",
}

// String returns human-readable token type name
func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "UNKNOWN"
}

// Is reports whether the token is the keyword kw (case-insensitive input,
// upper-case kw).
func (t Token) Is(kw string) bool {
	return t.Type == TOKEN_KEYWORD && t.Value == kw
}
