package mapping

import "strings"

// SupportedDatabases lists every backend a session can be opened against.
// Users must use these exact names in their database_type field
var SupportedDatabases = []string{
	"MySQL",
	"PostgreSQL",
	"SQLite",
	"Oracle",
	"SQLServer",
	"SQL",
	"CSV",
	"XML",
	"YAML",
	"INI",
	"BSON",
	"Protobuf",
	"Redis",
	"MongoDB",
}

// FlatFileFormats maps each flat-file format to its file extension.
var FlatFileFormats = map[string]string{
	"CSV":      ".csv",
	"XML":      ".xml",
	"YAML":     ".yaml",
	"INI":      ".ini",
	"BSON":     ".bson",
	"Protobuf": ".pb",
}

// RelationalDatabases are served by the database/sql pass-through.
var RelationalDatabases = map[string]bool{
	"MySQL":      true,
	"PostgreSQL": true,
	"SQLite":     true,
	"Oracle":     true,
	"SQLServer":  true,
	"SQL":        true,
}

// MemoryDatabase is the database identifier meaning "no on-disk resource".
const MemoryDatabase = "memory"

// IsSupportedDatabase checks if a database type is supported
func IsSupportedDatabase(dbType string) bool {
	for _, db := range SupportedDatabases {
		if db == dbType {
			return true
		}
	}
	return false
}

// IsFlatFile reports whether the format is executed by the in-process engine
// over a codec-backed file.
func IsFlatFile(dbType string) bool {
	_, ok := FlatFileFormats[dbType]
	return ok
}

// IsRelational reports whether the database type is a SQL server dialect.
func IsRelational(dbType string) bool {
	return RelationalDatabases[dbType]
}

// CanonicalDatabase resolves a case-insensitive name ("csv", "sqlserver")
// to its supported spelling.
func CanonicalDatabase(name string) (string, bool) {
	for _, db := range SupportedDatabases {
		if strings.EqualFold(db, name) {
			return db, true
		}
	}
	return "", false
}
