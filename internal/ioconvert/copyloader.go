package ioconvert

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// insufficientPrivilege is the SQLSTATE of permission errors.
const insufficientPrivilege = "42501"

// copyLoader stores batches with the PostgreSQL COPY protocol. Batches of
// a table are copied concurrently, every batch in its own transaction.
type copyLoader struct {
	op               db.Operator
	jobs             int
	disableIntegrity bool
	pool             *pgxpool.Pool
}

func newCopyLoader(op db.Operator, jobs int, disableIntegrity bool) *copyLoader {
	return &copyLoader{
		op:               op,
		jobs:             max(jobs, 1),
		disableIntegrity: disableIntegrity,
	}
}

// begin opens a pool of load connections. When integrity is disabled
// every connection runs with session_replication_role = 'replica', so
// triggers and foreign keys are not enforced. Closing the pool ends these
// sessions and with them the setting.
func (l *copyLoader) begin(ctx context.Context) (func(), error) {
	if l.op.Pool() == nil {
		return nil, NotConnectedError()
	}

	pool, err := l.newPool(ctx, l.disableIntegrity)
	if err != nil && l.disableIntegrity && isInsufficientPrivilege(err) {
		slog.Warn("Cannot disable referential integrity", "error", err)
		gn.Warn("No rights to disable referential integrity, " +
			"loading with integrity checks on")
		pool, err = l.newPool(ctx, false)
	}
	if err != nil {
		return nil, IntegrityToggleError(err)
	}

	l.pool = pool
	return func() {
		pool.Close()
		l.pool = nil
	}, nil
}

func (l *copyLoader) newPool(
	ctx context.Context,
	replica bool,
) (*pgxpool.Pool, error) {
	cfg := l.op.Pool().Config()
	cfg.MaxConns = int32(l.jobs)
	cfg.MinConns = 0
	if replica {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET session_replication_role = 'replica'")
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// try one connection, so the setting is known to work
	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	conn.Release()
	return pool, nil
}

func isInsufficientPrivilege(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == insufficientPrivilege
}

func (l *copyLoader) load(ctx context.Context, job *loadJob) (int64, error) {
	if l.pool == nil {
		return 0, NotConnectedError()
	}

	query := fmt.Sprintf(
		"COPY %s (%s) FROM STDIN WITH (FORMAT csv, DELIMITER E'\\t', HEADER true)",
		pgx.Identifier{job.table}.Sanitize(),
		l.op.Dialect().QuoteList(job.cols),
	)

	var inserted atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.jobs)

	var readErr error
	for gCtx.Err() == nil {
		rows, err := job.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = err
			break
		}

		g.Go(func() error {
			n, err := l.copyBatch(gCtx, query, job, rows)
			if err != nil {
				return BackendInsertError(job.table, err)
			}
			inserted.Add(n)
			if job.bar != nil {
				job.bar.Add64(n)
			}
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return inserted.Load(), CancelledError(ctxErr)
	}
	if readErr != nil {
		return inserted.Load(), readErr
	}
	return inserted.Load(), err
}

// copyBatch writes rows to a tab-delimited CSV buffer with a header line
// and copies it in a transaction.
func (l *copyLoader) copyBatch(
	ctx context.Context,
	query string,
	job *loadJob,
	rows [][]string,
) (int64, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	if err := w.Write(job.cols); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := w.Write(project(row, job.idx)); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Conn().PgConn().CopyFrom(ctx, &buf, query)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
