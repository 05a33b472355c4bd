package ioconvert

import (
	"context"
	"errors"
	"io"

	"github.com/gnames/dwca-tools/pkg/db"
)

// batchLoader stores every batch with multi-row INSERT statements inside
// one transaction. Batches are processed sequentially.
type batchLoader struct {
	op db.Operator
}

func newBatchLoader(op db.Operator) *batchLoader {
	return &batchLoader{op: op}
}

func (l *batchLoader) begin(context.Context) (func(), error) {
	return func() {}, nil
}

func (l *batchLoader) load(ctx context.Context, job *loadJob) (int64, error) {
	d := l.op.Dialect()
	perStmt := d.RowsPerStatement(len(job.cols))
	stmts := make(map[int]string)

	var res int64
	for {
		if err := ctx.Err(); err != nil {
			return res, CancelledError(err)
		}

		rows, err := job.reader.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, err
		}

		if err = l.insertBatch(ctx, job, rows, perStmt, stmts); err != nil {
			if ctx.Err() != nil {
				return res, CancelledError(ctx.Err())
			}
			return res, BackendInsertError(job.table, err)
		}
		res += int64(len(rows))
		if job.bar != nil {
			job.bar.Add(len(rows))
		}
	}
}

func (l *batchLoader) insertBatch(
	ctx context.Context,
	job *loadJob,
	rows [][]string,
	perStmt int,
	stmts map[int]string,
) error {
	d := l.op.Dialect()
	tx, err := l.op.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for start := 0; start < len(rows); start += perStmt {
		chunk := rows[start:min(start+perStmt, len(rows))]
		q, ok := stmts[len(chunk)]
		if !ok {
			q = d.InsertRows(job.table, job.cols, len(chunk))
			stmts[len(chunk)] = q
		}

		args := make([]any, 0, len(chunk)*len(job.idx))
		for _, row := range chunk {
			for _, i := range job.idx {
				args = append(args, row[i])
			}
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}
