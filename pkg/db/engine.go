package db

import (
	"strings"
)

// Engine is a family of destination databases.
type Engine int

const (
	UnknownEngine Engine = iota
	SQLite
	PostgreSQL
	MySQL
)

func (e Engine) String() string {
	switch e {
	case SQLite:
		return "sqlite"
	case PostgreSQL:
		return "postgresql"
	case MySQL:
		return "mysql"
	default:
		return "unknown"
	}
}

// SupportsBulkCopy tells if the engine has a native bulk-load protocol.
func (e Engine) SupportsBulkCopy() bool {
	return e == PostgreSQL
}

// EngineFromURL detects the engine of a connection string by its scheme.
// Driver suffixes like "postgresql+psycopg2" are ignored.
func EngineFromURL(url string) Engine {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		if strings.HasSuffix(url, ".db") || strings.HasSuffix(url, ".sqlite") {
			return SQLite
		}
		return UnknownEngine
	}
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")
	switch scheme {
	case "sqlite", "sqlite3":
		return SQLite
	case "postgres", "postgresql", "pgsql":
		return PostgreSQL
	case "mysql", "mariadb":
		return MySQL
	default:
		return UnknownEngine
	}
}
