package ioconvert

import (
	"fmt"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// NotConnectedError creates an error for when conversion is attempted
// without database connection.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Conversion attempted without database connection",
		Err:  fmt.Errorf("not connected to database"),
	}
}

// BackendInsertError is returned when a batch cannot be stored.
func BackendInsertError(table string, err error) error {
	msg := `Cannot insert rows into <em>%s</em>

The conversion was stopped, the table is incomplete.`

	return &gn.Error{
		Code: errcode.BackendInsertError,
		Msg:  msg,
		Vars: []any{table},
		Err:  fmt.Errorf("insert into %s failed: %w", table, err),
	}
}

// IntegrityToggleError is returned when referential integrity cannot be
// switched off for a bulk copy.
func IntegrityToggleError(err error) error {
	msg := `Cannot prepare connections for bulk copy

<em>How to fix:</em>
  Set <em>convert.disable_integrity: false</em> in the config file
  or use a database user with superuser rights`

	return &gn.Error{
		Code: errcode.IntegrityToggleError,
		Msg:  msg,
		Err:  fmt.Errorf("cannot set session_replication_role: %w", err),
	}
}

// CancelledError is returned when conversion is interrupted.
func CancelledError(err error) error {
	return &gn.Error{
		Code: errcode.CancelledError,
		Msg:  "Conversion was cancelled",
		Err:  fmt.Errorf("conversion cancelled: %w", err),
	}
}
