package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Archive errors
	ArchiveFormatError
	RowShapeError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBUnsupportedEngineError
	DBQueryTablesError
	DBUnknownReportError
	DBReportColumnError

	// Schema errors
	IdentifierError
	SchemaCreateError
	IndexCreateError

	// Convert errors
	BackendInsertError
	IntegrityToggleError
	CancelledError

	// Taxa errors
	MissingColumnError
	AggregateTaxaError

	// CLI errors
	InvalidFlagError
)
