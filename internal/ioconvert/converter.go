// Package ioconvert implements Converter interface for loading Darwin
// Core Archives into SQLite, PostgreSQL or MySQL.
// This is an impure I/O package that reads archives and performs
// bulk inserts.
package ioconvert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/dwca-tools/internal/ioarchive"
	"github.com/gnames/dwca-tools/internal/ioschema"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/lifecycle"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// converter implements the lifecycle.Converter interface.
type converter struct {
	cfg      *config.Config
	fs       afero.Fs
	operator db.Operator
	schema   lifecycle.SchemaManager
	log      *slog.Logger
}

// New creates a new Converter. Archives are read from fs, data goes
// to the database behind a connected op.
func New(cfg *config.Config, fs afero.Fs, op db.Operator) lifecycle.Converter {
	return &converter{
		cfg:      cfg,
		fs:       fs,
		operator: op,
		schema:   ioschema.NewManager(op),
	}
}

// Convert runs all stages of the conversion: manifest parsing, schema
// creation, row estimation, loading and indexing.
func (c *converter) Convert(
	ctx context.Context,
	archivePath string,
) (*dwca.ConvertReport, error) {
	if c.operator.DB() == nil {
		return nil, NotConnectedError()
	}

	startTime := time.Now()
	res := &dwca.ConvertReport{
		RunID:  uuid.NewString(),
		Engine: c.operator.Engine().String(),
	}
	c.log = slog.With("run_id", res.RunID)
	c.log.Info("Starting conversion",
		"archive", archivePath,
		"engine", res.Engine,
		"batch_size", c.cfg.Database.BatchSize,
		"jobs", c.cfg.JobsNumber,
	)

	arc, err := ioarchive.Open(c.fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer arc.Close()

	tables, err := arc.Tables(c.cfg.MetaFile)
	if err != nil {
		return nil, err
	}
	if err = arc.CheckTables(tables); err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		gn.Warn("Archive <em>%s</em> declares no tables", archivePath)
		res.Duration = time.Since(startTime)
		return res, nil
	}
	gn.Info("Archive has %d tables: %s", len(tables), tableNames(tables))

	gn.Info("Creating schema...")
	if err = c.schema.Create(ctx, tables); err != nil {
		return nil, err
	}

	estimates := c.estimate(ctx, arc, tables)

	for _, t := range tables {
		res.Tables = append(res.Tables, dwca.TableReport{
			Name:      t.Name,
			Filename:  t.Filename,
			Estimated: max(estimates[t.Name]-1, 0),
		})
	}

	gn.Info("Inserting data...")
	if err = c.loadTables(ctx, arc, res.Tables); err != nil {
		return nil, err
	}

	for i := range res.Tables {
		tr := &res.Tables[i]
		cols := c.cfg.Convert.Indexes[tr.Name]
		if len(cols) == 0 || len(tr.Columns) == 0 {
			continue
		}
		tr.Indexes, err = c.schema.CreateIndexes(ctx, tr.Name, cols)
		if err != nil {
			return nil, err
		}
		c.log.Info("Created indexes", "table", tr.Name, "indexes", tr.Indexes)
	}

	res.Duration = time.Since(startTime)
	c.log.Info("Conversion complete",
		"rows", res.TotalInserted(),
		"duration", gnfmt.TimeString(res.Duration.Seconds()),
	)
	gn.Info(`Conversion complete
Inserted <em>%s</em> rows into %d tables.
Elapsed time: <em>%s</em>`,
		humanize.Comma(res.TotalInserted()),
		len(res.Tables),
		gnfmt.TimeString(res.Duration.Seconds()),
	)
	return res, nil
}

func (c *converter) estimate(
	ctx context.Context,
	arc *ioarchive.Archive,
	tables []dwca.TableDefinition,
) map[string]int {
	var size uint64
	for _, t := range tables {
		size += arc.EntrySize(t.Filename)
	}

	bar := newProgressBar(int(size), "Estimating rows: ")
	bar.Set(pb.Bytes, true)
	res := arc.EstimateRows(ctx, tables, c.cfg.JobsNumber, func(n int) {
		bar.Add(n)
	})
	bar.Finish()

	for _, t := range tables {
		gn.Info("Estimated rows for <em>%s</em>: %s",
			t.Name, humanize.Comma(int64(max(res[t.Name]-1, 0))))
	}
	return res
}

// newLoader picks the insertion strategy for the destination engine.
func (c *converter) newLoader() loader {
	if c.operator.Engine().SupportsBulkCopy() {
		return newCopyLoader(c.operator, c.cfg.JobsNumber,
			c.cfg.IntegrityDisabled())
	}
	return newBatchLoader(c.operator)
}

// loadTables loads every table. The state prepared by the loader is
// restored when all tables are done or if loading fails.
func (c *converter) loadTables(
	ctx context.Context,
	arc *ioarchive.Archive,
	reports []dwca.TableReport,
) error {
	ld := c.newLoader()
	end, err := ld.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	for i := range reports {
		if err = ctx.Err(); err != nil {
			return CancelledError(err)
		}
		if err = c.loadTable(ctx, arc, ld, &reports[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) loadTable(
	ctx context.Context,
	arc *ioarchive.Archive,
	ld loader,
	tr *dwca.TableReport,
) error {
	stored, err := c.operator.Columns(ctx, tr.Name)
	if err != nil {
		return err
	}

	cr, err := arc.ChunkReader(tr.Filename, c.cfg.Database.BatchSize)
	if err != nil {
		return err
	}
	defer cr.Close()

	cols, idx := selectColumns(cr.Header(), stored, c.cfg.ColumnsOfInterest(tr.Name))
	if len(cols) == 0 {
		gn.Warn("No columns to transfer for <em>%s</em>, skipping it", tr.Name)
		c.log.Warn("Skipping table without selected columns", "table", tr.Name)
		return nil
	}
	tr.Columns = cols

	gn.Info("Processing table <em>%s</em> with %s rows",
		tr.Name, humanize.Comma(int64(tr.Estimated)))
	c.log.Info("Loading table",
		"table", tr.Name,
		"file", tr.Filename,
		"columns", len(cols),
		"estimated", tr.Estimated,
	)

	bar := newProgressBar(tr.Estimated, fmt.Sprintf("Inserting %s: ", tr.Name))
	tr.Inserted, err = ld.load(ctx, &loadJob{
		table:  tr.Name,
		reader: cr,
		cols:   cols,
		idx:    idx,
		bar:    bar,
	})
	bar.Finish()
	if err != nil {
		c.log.Error("Failed to load table",
			"table", tr.Name,
			"inserted", tr.Inserted,
			"error", err,
		)
		return err
	}

	gn.Info("Inserted <em>%s</em> rows into <em>%s</em>",
		humanize.Comma(tr.Inserted), tr.Name)
	return nil
}

func tableNames(tables []dwca.TableDefinition) string {
	res := make([]string, len(tables))
	for i, t := range tables {
		res[i] = t.Name
	}
	return strings.Join(res, ", ")
}
