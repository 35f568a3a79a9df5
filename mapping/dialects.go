package mapping

// QuoteStyle is an identifier quoting convention.
type QuoteStyle struct {
	Name  string
	Open  string
	Close string
}

var (
	QuoteBacktick = QuoteStyle{Name: "backtick", Open: "`", Close: "`"}
	QuoteDouble   = QuoteStyle{Name: "double", Open: `"`, Close: `"`}
	QuoteBracket  = QuoteStyle{Name: "bracket", Open: "[", Close: "]"}
	QuoteNone     = QuoteStyle{Name: "none"}
)

// QuoteStyles indexes the styles by name.
var QuoteStyles = map[string]QuoteStyle{
	"backtick": QuoteBacktick,
	"double":   QuoteDouble,
	"bracket":  QuoteBracket,
	"none":     QuoteNone,
}

// PlaceholderStyle is a bound-parameter marker convention.
type PlaceholderStyle string

const (
	PlaceholderQuestion PlaceholderStyle = "QUESTION" // ?
	PlaceholderDollar   PlaceholderStyle = "DOLLAR"   // $1
	PlaceholderColon    PlaceholderStyle = "COLON"    // :1
	PlaceholderAt       PlaceholderStyle = "AT"       // @p1
)

// LimitStyle is the pagination syntax of a dialect.
type LimitStyle string

const (
	LimitOffset LimitStyle = "LIMIT_OFFSET" // LIMIT n OFFSET m
	OffsetFetch LimitStyle = "OFFSET_FETCH" // OFFSET m ROWS FETCH NEXT n ROWS ONLY
)

// DialectStyle is everything the renderer needs to know about a dialect.
type DialectStyle struct {
	Name        string
	Quote       QuoteStyle
	Placeholder PlaceholderStyle
	Limit       LimitStyle
	True        string
	False       string
}

// Dialects - Runtime mapping for the renderer
// Usage: Dialects["MySQL"].Quote returns QuoteBacktick
var Dialects = map[string]DialectStyle{
	"MySQL": {
		Name: "MySQL", Quote: QuoteBacktick, Placeholder: PlaceholderQuestion,
		Limit: LimitOffset, True: "TRUE", False: "FALSE",
	},
	"PostgreSQL": {
		Name: "PostgreSQL", Quote: QuoteDouble, Placeholder: PlaceholderDollar,
		Limit: LimitOffset, True: "TRUE", False: "FALSE",
	},
	"SQLite": {
		Name: "SQLite", Quote: QuoteDouble, Placeholder: PlaceholderQuestion,
		Limit: LimitOffset, True: "1", False: "0",
	},
	"Oracle": {
		Name: "Oracle", Quote: QuoteDouble, Placeholder: PlaceholderColon,
		Limit: OffsetFetch, True: "1", False: "0",
	},
	"SQLServer": {
		Name: "SQLServer", Quote: QuoteBracket, Placeholder: PlaceholderAt,
		Limit: OffsetFetch, True: "1", False: "0",
	},
	"SQL": {
		Name: "SQL", Quote: QuoteDouble, Placeholder: PlaceholderQuestion,
		Limit: LimitOffset, True: "TRUE", False: "FALSE",
	},
}

// GetDialect returns the rendering style for a database type. Flat-file,
// key/value and document backends render in the generic SQL style.
func GetDialect(dbType string) DialectStyle {
	if d, ok := Dialects[dbType]; ok {
		return d
	}
	return Dialects["SQL"]
}
