package ioaggregate

import (
	"fmt"
	"strings"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// NotConnectedError creates an error for when aggregation is attempted
// without database connection.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Aggregation attempted without database connection",
		Err:  fmt.Errorf("not connected to database"),
	}
}

// NoOccurrenceError is returned when the database has no occurrence
// table.
func NoOccurrenceError() error {
	msg := `Database has no <em>occurrence</em> table

Load an archive first:
    <em>dwca-tools convert archive.zip --db-url sqlite:///data.db</em>`

	return &gn.Error{
		Code: errcode.AggregateTaxaError,
		Msg:  msg,
		Err:  fmt.Errorf("occurrence table not found"),
	}
}

// MissingColumnError is returned when the occurrence table lacks a
// column needed for aggregation.
func MissingColumnError(col string, available []string) error {
	msg := `Column <em>%s</em> not found in the occurrence table

Available columns: %s
Convert the archive with <em>--all-columns</em> to keep all of them.`

	return &gn.Error{
		Code: errcode.MissingColumnError,
		Msg:  msg,
		Vars: []any{col, strings.Join(available, ", ")},
		Err:  fmt.Errorf("column %s not found in occurrence", col),
	}
}

// AggregateTaxaError is returned when the taxa table cannot be built.
func AggregateTaxaError(err error) error {
	return &gn.Error{
		Code: errcode.AggregateTaxaError,
		Msg:  "Cannot build the <em>taxa</em> table",
		Err:  fmt.Errorf("taxa aggregation failed: %w", err),
	}
}
