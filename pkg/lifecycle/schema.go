package lifecycle

import (
	"context"

	"github.com/gnames/dwca-tools/pkg/dwca"
)

// SchemaManager defines the interface for destination schema management.
// Tables are created from archive table definitions, every stored column
// is TEXT, and every table gets a synthetic auto-increment id.
// Schema creation is idempotent - safe to run multiple times.
type SchemaManager interface {
	// Create validates all table and column names and then creates
	// missing tables. No SQL is executed if any name is unsafe.
	Create(ctx context.Context, tables []dwca.TableDefinition) error

	// CreateIndexes creates one index per requested column that exists in
	// the table. Missing columns are skipped. Returns created index names.
	CreateIndexes(ctx context.Context, table string, cols []string) ([]string, error)
}
