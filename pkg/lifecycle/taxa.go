package lifecycle

import (
	"context"

	"github.com/gnames/dwca-tools/pkg/dwca"
)

// TaxaSummarizer aggregates occurrences of an archive into taxa groups
// in a single streaming pass, without a database.
type TaxaSummarizer interface {
	// Summarize returns sorted taxa groups of the archive at archivePath.
	Summarize(ctx context.Context, archivePath string) (*dwca.TaxaSummary, error)
}

// TaxaTableBuilder creates an aggregated taxa table in a database that
// already contains loaded occurrence data.
type TaxaTableBuilder interface {
	// Build replaces the content of the taxa table and returns the
	// number of stored taxa.
	Build(ctx context.Context) (int, error)
}
