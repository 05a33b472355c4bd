package iotaxa

import (
	"fmt"
	"strings"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// MissingColumnError is returned when a column needed for grouping or
// filtering is absent from the occurrence table.
func MissingColumnError(col string, available []string) error {
	msg := `Column <em>%s</em> not found in the occurrence table

Available columns: %s`

	return &gn.Error{
		Code: errcode.MissingColumnError,
		Msg:  msg,
		Vars: []any{col, strings.Join(available, ", ")},
		Err:  fmt.Errorf("column %s not found", col),
	}
}

// NoOccurrenceError is returned for archives without an occurrence table.
func NoOccurrenceError(archive string) error {
	return &gn.Error{
		Code: errcode.AggregateTaxaError,
		Msg:  "No occurrence table found in <em>%s</em>",
		Vars: []any{archive},
		Err:  fmt.Errorf("archive %s has no occurrence table", archive),
	}
}

// CancelledError is returned when the summary is interrupted.
func CancelledError(err error) error {
	return &gn.Error{
		Code: errcode.CancelledError,
		Msg:  "Taxa summary was cancelled",
		Err:  fmt.Errorf("taxa summary cancelled: %w", err),
	}
}
