package iodb

import (
	"context"
	"fmt"

	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/dwca-tools/pkg/dwca"
)

// Summary returns the row count and columns of every user table.
func Summary(ctx context.Context, op db.Operator) ([]dwca.SQLTableSummary, error) {
	if op.DB() == nil {
		return nil, NotConnectedError()
	}
	tables, err := op.Tables(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]dwca.SQLTableSummary, 0, len(tables))
	for _, t := range tables {
		var count int64
		q := "SELECT COUNT(*) FROM " + op.Dialect().Quote(t)
		if err = op.DB().QueryRowContext(ctx, q).Scan(&count); err != nil {
			return nil, QueryTablesError(t, err)
		}
		cols, err := op.Columns(ctx, t)
		if err != nil {
			return nil, err
		}
		res = append(res, dwca.SQLTableSummary{
			Name:     t,
			RowCount: count,
			Columns:  cols,
		})
	}
	return res, nil
}

// Sample returns up to n random rows of a table. NULL values become
// empty strings.
func Sample(
	ctx context.Context,
	op db.Operator,
	table string,
	n int,
) ([]string, [][]string, error) {
	if op.DB() == nil {
		return nil, nil, NotConnectedError()
	}
	if !dwca.IsSafeIdentifier(table) {
		return nil, nil, QueryTablesError(table,
			fmt.Errorf("unsafe table name %q", table))
	}

	d := op.Dialect()
	q := fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT %d",
		d.Quote(table), d.RandomFunc(), max(n, 0))
	cols, rows, err := queryRows(ctx, op, q)
	if err != nil {
		return nil, nil, QueryTablesError(table, err)
	}
	return cols, rows, nil
}
