// Package dwca contains domain types of Darwin Core Archives: table
// definitions discovered from a manifest, taxa summaries and conversion
// reports. The package is pure, it does not read archives or databases.
package dwca

import (
	"strings"
)

// UnknownLocation is the file name of a table whose manifest entry
// has no files/location element.
const UnknownLocation = "Unknown"

// ColumnDefinition describes one field of a table.
type ColumnDefinition struct {
	// Index is the declared position of the field in the data file.
	// Fields without an index are structural metadata and are not stored.
	Index *int

	// Name is the last path segment of the field's term URI.
	Name string

	// Term is the full term URI.
	Term string
}

// Stored tells if the column belongs to a storage schema.
func (c ColumnDefinition) Stored() bool {
	return c.Index != nil
}

// TableDefinition describes one table of an archive.
type TableDefinition struct {
	// Name is the table name derived from the file name.
	Name string

	// Filename is the location of the data file inside the archive.
	Filename string

	// RowType is the row type URI of the table.
	RowType string

	// Core is true for the core table of the archive.
	Core bool

	// Columns are the fields with term attributes in declaration order.
	Columns []ColumnDefinition
}

// ColumnNames returns names of all columns in declaration order.
func (t TableDefinition) ColumnNames() []string {
	res := make([]string, len(t.Columns))
	for i, v := range t.Columns {
		res[i] = v.Name
	}
	return res
}

// StorageColumns returns names of indexed columns. Duplicates are
// compared case-insensitively and only the first one is kept.
func (t TableDefinition) StorageColumns() []string {
	seen := make(map[string]struct{})
	var res []string
	for _, v := range t.Columns {
		if !v.Stored() {
			continue
		}
		key := strings.ToLower(v.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, v.Name)
	}
	return res
}

// HasColumn checks if a column with exactly this name is declared.
func (t TableDefinition) HasColumn(name string) bool {
	for _, v := range t.Columns {
		if v.Name == name {
			return true
		}
	}
	return false
}

// RowTypeName returns the short name of the row type, for example
// "occurrence" for http://rs.tdwg.org/dwc/terms/Occurrence.
func (t TableDefinition) RowTypeName() string {
	return TableNameFromRowType(t.RowType)
}

// FindTable returns a table definition by its name.
func FindTable(tables []TableDefinition, name string) (TableDefinition, bool) {
	for _, v := range tables {
		if v.Name == name {
			return v, true
		}
	}
	return TableDefinition{}, false
}
