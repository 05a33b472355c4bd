package cmd

import (
	"fmt"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// FormatError is returned for an unsupported --format value.
func FormatError(format string) error {
	return &gn.Error{
		Code: errcode.InvalidFlagError,
		Msg:  "Unknown output format <em>%s</em>, use <em>table</em> or <em>json</em>",
		Vars: []any{format},
		Err:  fmt.Errorf("unknown output format %q", format),
	}
}
