package db

import (
	"fmt"
	"strconv"
	"strings"
)

// IDColumn is the name of the synthetic primary key of every table.
const IDColumn = "id"

// Dialect builds engine-specific SQL fragments. Identifiers given to it
// must be validated by the caller, quoting is applied on top of that.
type Dialect struct {
	Engine Engine
}

// NewDialect creates a Dialect for an engine.
func NewDialect(e Engine) Dialect {
	return Dialect{Engine: e}
}

// Quote returns a quoted identifier.
func (d Dialect) Quote(ident string) string {
	if d.Engine == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteList quotes identifiers and joins them with commas.
func (d Dialect) QuoteList(idents []string) string {
	res := make([]string, len(idents))
	for i, v := range idents {
		res[i] = d.Quote(v)
	}
	return strings.Join(res, ", ")
}

// Placeholder returns a bind parameter for a 1-based position.
func (d Dialect) Placeholder(i int) string {
	if d.Engine == PostgreSQL {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// PrimaryKey returns the definition of a synthetic auto-increment key.
func (d Dialect) PrimaryKey() string {
	switch d.Engine {
	case PostgreSQL:
		return "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	case MySQL:
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// MaxParams is the number of bind parameters allowed in one statement.
func (d Dialect) MaxParams() int {
	if d.Engine == SQLite {
		return 32_766
	}
	return 65_535
}

// RandomFunc returns the function used for random ordering.
func (d Dialect) RandomFunc() string {
	if d.Engine == MySQL {
		return "RAND()"
	}
	return "RANDOM()"
}

// CreateTable returns a statement that creates a table with an id key
// and text columns.
func (d Dialect) CreateTable(table string, cols []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s (\n  %s %s",
		d.Quote(table), IDColumn, d.PrimaryKey())
	for _, v := range cols {
		fmt.Fprintf(&sb, ",\n  %s TEXT", d.Quote(v))
	}
	sb.WriteString("\n)")
	return sb.String()
}

// CreateIndex returns a statement creating a single-column index.
// MySQL does not support IF NOT EXISTS for indexes, and needs a prefix
// length for TEXT columns.
func (d Dialect) CreateIndex(name, table, col string) string {
	if d.Engine == MySQL {
		return fmt.Sprintf("CREATE INDEX %s ON %s (%s(255))",
			d.Quote(name), d.Quote(table), d.Quote(col))
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		d.Quote(name), d.Quote(table), d.Quote(col))
}

// InsertRows returns a multi-row INSERT statement for rowsNum rows.
func (d Dialect) InsertRows(table string, cols []string, rowsNum int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ",
		d.Quote(table), d.QuoteList(cols))
	n := 1
	for i := range rowsNum {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range cols {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// RowsPerStatement returns how many rows of colsNum width fit into one
// INSERT statement.
func (d Dialect) RowsPerStatement(colsNum int) int {
	if colsNum < 1 {
		return 1
	}
	return max(d.MaxParams()/colsNum, 1)
}
