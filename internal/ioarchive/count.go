package ioarchive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/gnames/dwca-tools/pkg/dwca"
	"golang.org/x/sync/errgroup"
)

const countBlockSize = 1 << 16

// CountLines counts newline bytes of r reading it in 64KiB blocks.
// The count includes the header line. onRead, if given, receives the
// number of bytes of every block.
func CountLines(r io.Reader, onRead func(int)) (int, error) {
	buf := make([]byte, countBlockSize)
	var res int
	for {
		n, err := r.Read(buf)
		if n > 0 {
			res += bytes.Count(buf[:n], []byte{'\n'})
			if onRead != nil {
				onRead(n)
			}
		}
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, err
		}
	}
}

// EstimateRows counts lines of every table concurrently, each table
// through its own handle of the archive. Counts include the header line.
// A table that cannot be counted gets 0, estimation never fails.
func (a *Archive) EstimateRows(
	ctx context.Context,
	tables []dwca.TableDefinition,
	jobs int,
	onRead func(int),
) map[string]int {
	var mu sync.Mutex
	res := make(map[string]int, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for _, td := range tables {
		g.Go(func() error {
			n, err := a.countTable(ctx, td.Filename, onRead)
			if err != nil {
				slog.Warn("Cannot estimate rows",
					"table", td.Name, "file", td.Filename, "error", err)
				n = 0
			}
			mu.Lock()
			res[td.Name] = n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return res
}

func (a *Archive) countTable(
	ctx context.Context,
	name string,
	onRead func(int),
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rc, err := a.openIndependent(name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return CountLines(rc, onRead)
}
