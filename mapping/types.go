package mapping

import "strings"

// TypeMap - Runtime mapping for result metadata
// Usage: TypeMap["PostgreSQL"]["float"] returns "DOUBLE PRECISION"
// Maps the type names inferred from record values to the column type a
// dialect would declare for them
var TypeMap = map[string]map[string]string{
	"PostgreSQL": {
		"integer": "BIGINT",
		"float":   "DOUBLE PRECISION",
		"string":  "TEXT",
		"boolean": "BOOLEAN",
	},

	"MySQL": {
		"integer": "BIGINT",
		"float":   "DOUBLE",
		"string":  "TEXT",
		"boolean": "TINYINT(1)", // BOOLEAN is an alias
	},

	"SQLite": {
		// Storage classes, SQLite has no boolean
		"integer": "INTEGER",
		"float":   "REAL",
		"string":  "TEXT",
		"boolean": "INTEGER",
	},

	"Oracle": {
		"integer": "NUMBER(19)",
		"float":   "BINARY_DOUBLE",
		"string":  "VARCHAR2(4000)",
		"boolean": "NUMBER(1)",
	},

	"SQLServer": {
		"integer": "BIGINT",
		"float":   "FLOAT",
		"string":  "NVARCHAR(MAX)",
		"boolean": "BIT",
	},

	"SQL": {
		"integer": "BIGINT",
		"float":   "DOUBLE PRECISION",
		"string":  "VARCHAR",
		"boolean": "BOOLEAN",
	},
}

// GetNativeType returns the declared type for an inferred type name under
// dbType's dialect. Unknown dialects use the generic SQL names; "null" and
// unknown type names have no native type and return "".
func GetNativeType(dbType, typeName string) string {
	types, ok := TypeMap[GetDialect(dbType).Name]
	if !ok {
		types = TypeMap["SQL"]
	}
	return types[strings.ToLower(typeName)]
}
