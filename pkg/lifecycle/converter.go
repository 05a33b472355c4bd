package lifecycle

import (
	"context"

	"github.com/gnames/dwca-tools/pkg/dwca"
)

// Converter loads a Darwin Core Archive into a relational database.
//
// Conversion is a multi-stage pipeline: schema creation, row estimation,
// column selection, bulk insertion and index creation. Any failure aborts
// the whole conversion.
type Converter interface {
	// Convert loads every table of the archive at archivePath.
	Convert(ctx context.Context, archivePath string) (*dwca.ConvertReport, error)
}
