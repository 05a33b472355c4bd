package ioarchive

import (
	"fmt"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// OpenArchiveError is returned when a file cannot be opened as a zip
// archive.
func OpenArchiveError(path string, err error) error {
	msg := `Cannot open Darwin Core Archive <em>%s</em>

<em>Possible causes:</em>
  - The file does not exist
  - The file is not a zip archive
  - The download was interrupted`

	return &gn.Error{
		Code: errcode.ArchiveFormatError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("cannot open archive %s: %w", path, err),
	}
}

// MissingEntryError is returned when the manifest or a data file is
// absent from the archive.
func MissingEntryError(archive, entry string) error {
	return &gn.Error{
		Code: errcode.ArchiveFormatError,
		Msg:  "Archive <em>%s</em> has no file <em>%s</em>",
		Vars: []any{archive, entry},
		Err:  fmt.Errorf("entry %s not found in %s", entry, archive),
	}
}

// MetaFormatError is returned for manifests that cannot be parsed.
func MetaFormatError(entry string, err error) error {
	return &gn.Error{
		Code: errcode.ArchiveFormatError,
		Msg:  "Cannot parse archive manifest <em>%s</em>",
		Vars: []any{entry},
		Err:  fmt.Errorf("malformed manifest %s: %w", entry, err),
	}
}

// ReadEntryError is returned when a data file cannot be read.
func ReadEntryError(entry string, err error) error {
	return &gn.Error{
		Code: errcode.ArchiveFormatError,
		Msg:  "Cannot read <em>%s</em> from the archive",
		Vars: []any{entry},
		Err:  fmt.Errorf("cannot read %s: %w", entry, err),
	}
}

// RowShapeError is returned when a data row has a different number of
// fields than the header.
func RowShapeError(entry string, line, got, want int) error {
	msg := `Row <em>%d</em> of <em>%s</em> has %d fields, the header has %d

Fields must not contain tab characters.`

	return &gn.Error{
		Code: errcode.RowShapeError,
		Msg:  msg,
		Vars: []any{line, entry, got, want},
		Err: fmt.Errorf("%s line %d: %d fields instead of %d",
			entry, line, got, want),
	}
}
