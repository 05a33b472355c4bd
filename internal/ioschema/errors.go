package ioschema

import (
	"fmt"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// NotConnectedError creates an error for when schema
// operation is attempted without database connection.
func NotConnectedError() error {
	msg := "Schema operation attempted without database connection"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// IdentifierError is returned for table or column names that cannot be
// used in SQL statements.
func IdentifierError(kind, name string) error {
	msg := `Unsafe %s name <em>%s</em>

Names may contain only letters, digits and underscores, and must not
start with a digit. No tables were created.`

	return &gn.Error{
		Code: errcode.IdentifierError,
		Msg:  msg,
		Vars: []any{kind, name},
		Err:  fmt.Errorf("unsafe %s name %q", kind, name),
	}
}

// ReservedColumnError is returned for a data column that has the name
// of the synthetic primary key.
func ReservedColumnError(table, name string) error {
	msg := `Column <em>%s</em> of table <em>%s</em> clashes with the
synthetic primary key <em>id</em>. No tables were created.`

	return &gn.Error{
		Code: errcode.IdentifierError,
		Msg:  msg,
		Vars: []any{name, table},
		Err:  fmt.Errorf("column %q of %s is reserved", name, table),
	}
}

// CreateSchemaError creates an error for schema
// creation failures.
func CreateSchemaError(table string, err error) error {
	msg := `Cannot create table <em>%s</em>

<em>Possible causes:</em>
  - Insufficient database permissions
  - A table with the same name but different columns exists

<em>How to fix:</em>
  1. Check that the database user has CREATE permissions
  2. Drop conflicting tables or use another database`

	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: []any{table},
		Err:  fmt.Errorf("failed to create table %s: %w", table, err),
	}
}

// CreateIndexError creates an error for index creation failures.
func CreateIndexError(index string, err error) error {
	return &gn.Error{
		Code: errcode.IndexCreateError,
		Msg:  "Cannot create index <em>%s</em>",
		Vars: []any{index},
		Err:  fmt.Errorf("failed to create index %s: %w", index, err),
	}
}
