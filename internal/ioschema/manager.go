// Package ioschema implements SchemaManager interface for
// destination schema management. This is an impure I/O package
// that builds tables and indexes from archive table definitions.
package ioschema

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/lifecycle"
)

// manager implements the lifecycle.SchemaManager interface.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) lifecycle.SchemaManager {
	return &manager{operator: op}
}

// Create validates every table and column name first, and only then
// creates tables. Existing tables are kept.
func (m *manager) Create(
	ctx context.Context,
	tables []dwca.TableDefinition,
) error {
	conn := m.operator.DB()
	if conn == nil {
		return NotConnectedError()
	}

	if err := ValidateTables(tables); err != nil {
		return err
	}

	d := m.operator.Dialect()
	for _, t := range tables {
		q := d.CreateTable(t.Name, t.StorageColumns())
		slog.Debug("Creating table", "table", t.Name, "sql", q)
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return CreateSchemaError(t.Name, err)
		}
	}
	return nil
}

// ValidateTables checks all table and storage column names.
func ValidateTables(tables []dwca.TableDefinition) error {
	for _, t := range tables {
		if !dwca.IsSafeIdentifier(t.Name) {
			return IdentifierError("table", t.Name)
		}
		for _, col := range t.StorageColumns() {
			if !dwca.IsSafeIdentifier(col) {
				return IdentifierError("column", col)
			}
			if strings.EqualFold(col, db.IDColumn) {
				return ReservedColumnError(t.Name, col)
			}
		}
	}
	return nil
}

// CreateIndexes creates idx_<table>_<column> indexes for requested
// columns that exist in the table. Comparison of column names ignores
// case, the index uses the stored name.
func (m *manager) CreateIndexes(
	ctx context.Context,
	table string,
	cols []string,
) ([]string, error) {
	conn := m.operator.DB()
	if conn == nil {
		return nil, NotConnectedError()
	}
	if len(cols) == 0 {
		return nil, nil
	}
	if !dwca.IsSafeIdentifier(table) {
		return nil, IdentifierError("table", table)
	}

	stored, err := m.operator.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	byLower := make(map[string]string, len(stored))
	for _, v := range stored {
		byLower[strings.ToLower(v)] = v
	}

	d := m.operator.Dialect()
	var res []string
	for _, col := range cols {
		name, ok := byLower[strings.ToLower(col)]
		if !ok {
			slog.Info("Skipping index of absent column",
				"table", table, "column", col)
			continue
		}
		idx := IndexName(table, name)
		if !dwca.IsSafeIdentifier(idx) {
			return res, IdentifierError("index", idx)
		}

		if d.Engine == db.MySQL {
			exists, err := m.mysqlIndexExists(ctx, table, idx)
			if err != nil {
				return res, CreateIndexError(idx, err)
			}
			if exists {
				res = append(res, idx)
				continue
			}
		}

		if _, err = conn.ExecContext(ctx, d.CreateIndex(idx, table, name)); err != nil {
			return res, CreateIndexError(idx, err)
		}
		res = append(res, idx)
	}
	return res, nil
}

// IndexName returns the name of a single-column index.
func IndexName(table, col string) string {
	return "idx_" + table + "_" + col
}

func (m *manager) mysqlIndexExists(
	ctx context.Context,
	table, idx string,
) (bool, error) {
	q := `
	SELECT COUNT(*) FROM information_schema.statistics
	WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`
	var count int
	if err := m.operator.DB().QueryRowContext(ctx, q, table, idx).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
