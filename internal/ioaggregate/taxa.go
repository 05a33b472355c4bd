// Package ioaggregate implements TaxaTableBuilder interface. It builds
// a taxa table from occurrence and multimedia tables of a loaded
// database.
package ioaggregate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/lifecycle"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnuuid"
)

// TaxaTable is the name of the aggregated table.
const TaxaTable = dwca.TaxaTable

// taxaColumns are filled columns of the taxa table.
var taxaColumns = []string{
	"name_id", dwca.ColTaxonID, dwca.ColScientificName, dwca.ColFamily,
	"occurrences_count", "multimedia_count",
}

type taxon struct {
	taxonID          string
	scientificName   string
	family           string
	occurrencesCount int64
	multimediaCount  int64
}

type builder struct {
	cfg      *config.Config
	operator db.Operator
}

// New creates a TaxaTableBuilder for a connected op.
func New(cfg *config.Config, op db.Operator) lifecycle.TaxaTableBuilder {
	return &builder{cfg: cfg, operator: op}
}

// Build replaces the content of the taxa table with one row per
// distinct taxonID of occurrences.
func (b *builder) Build(ctx context.Context) (int, error) {
	if b.operator.DB() == nil {
		return 0, NotConnectedError()
	}
	startTime := time.Now()

	occCols, err := b.occurrenceColumns(ctx)
	if err != nil {
		return 0, err
	}
	mmGbifID, err := b.multimediaColumn(ctx)
	if err != nil {
		return 0, err
	}

	if err = b.createTable(ctx); err != nil {
		return 0, err
	}

	gn.Info("Aggregating occurrences by <em>taxonID</em>...")
	taxa, err := b.queryTaxa(ctx, occCols, mmGbifID)
	if err != nil {
		return 0, err
	}

	if err = b.insertTaxa(ctx, taxa); err != nil {
		return 0, err
	}

	slog.Info("Taxa table populated",
		"taxa", len(taxa),
		"with_multimedia", mmGbifID != "",
		"duration", gnfmt.TimeString(time.Since(startTime).Seconds()),
	)
	gn.Info("Inserted <em>%s</em> rows into <em>%s</em> table",
		humanize.Comma(int64(len(taxa))), TaxaTable)
	return len(taxa), nil
}

// occurrenceColumns resolves stored names of required columns.
func (b *builder) occurrenceColumns(ctx context.Context) (map[string]string, error) {
	stored, err := b.operator.Columns(ctx, dwca.OccurrenceTable)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, NoOccurrenceError()
	}

	res := make(map[string]string)
	for _, col := range []string{
		dwca.ColTaxonID, dwca.ColScientificName, dwca.ColFamily, dwca.ColGbifID,
	} {
		name, ok := findColumn(stored, col)
		if !ok {
			return nil, MissingColumnError(col, stored)
		}
		res[col] = name
	}
	return res, nil
}

// multimediaColumn returns the stored name of multimedia gbifID, or an
// empty string if there is nothing to count.
func (b *builder) multimediaColumn(ctx context.Context) (string, error) {
	stored, err := b.operator.Columns(ctx, dwca.MultimediaTable)
	if err != nil {
		return "", err
	}
	name, ok := findColumn(stored, dwca.ColGbifID)
	if !ok {
		slog.Info("No multimedia gbifID column, multimedia counts are 0")
		return "", nil
	}
	return name, nil
}

func findColumn(stored []string, col string) (string, bool) {
	for _, v := range stored {
		if strings.EqualFold(v, col) {
			return v, true
		}
	}
	return "", false
}

func (b *builder) createTable(ctx context.Context) error {
	d := b.operator.Dialect()
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id %s,
  %s VARCHAR(36),
  %s VARCHAR(255) UNIQUE,
  %s TEXT,
  %s TEXT,
  %s BIGINT,
  %s BIGINT
)`,
		d.Quote(TaxaTable), d.PrimaryKey(),
		d.Quote("name_id"),
		d.Quote(dwca.ColTaxonID),
		d.Quote(dwca.ColScientificName),
		d.Quote(dwca.ColFamily),
		d.Quote("occurrences_count"),
		d.Quote("multimedia_count"),
	)
	if _, err := b.operator.DB().ExecContext(ctx, q); err != nil {
		return AggregateTaxaError(err)
	}
	return nil
}

// taxaQuery groups occurrences by taxonID. Multimedia rows are counted
// per gbifID first, so occurrences are not multiplied by the join.
func (b *builder) taxaQuery(occCols map[string]string, mmGbifID string) string {
	d := b.operator.Dialect()
	taxonID := "o." + d.Quote(occCols[dwca.ColTaxonID])

	mmCount, join := "0", ""
	if mmGbifID != "" {
		mmCount = "COALESCE(SUM(m.n), 0)"
		join = fmt.Sprintf(`
LEFT JOIN (
  SELECT %[1]s AS gid, COUNT(*) AS n FROM %[2]s GROUP BY %[1]s
) m ON m.gid = o.%[3]s`,
			d.Quote(mmGbifID),
			d.Quote(dwca.MultimediaTable),
			d.Quote(occCols[dwca.ColGbifID]),
		)
	}

	return fmt.Sprintf(`SELECT %[1]s, MIN(o.%[2]s), MIN(o.%[3]s), COUNT(*), %[4]s
FROM %[5]s o%[6]s
WHERE %[1]s IS NOT NULL AND %[1]s <> ''
GROUP BY %[1]s
ORDER BY %[1]s`,
		taxonID,
		d.Quote(occCols[dwca.ColScientificName]),
		d.Quote(occCols[dwca.ColFamily]),
		mmCount,
		d.Quote(dwca.OccurrenceTable),
		join,
	)
}

// queryTaxa reads all aggregated rows before any insert. SQLite keeps
// one connection, it cannot write while a query is open.
func (b *builder) queryTaxa(
	ctx context.Context,
	occCols map[string]string,
	mmGbifID string,
) ([]taxon, error) {
	q := b.taxaQuery(occCols, mmGbifID)
	slog.Debug("Aggregating taxa", "sql", q)

	rows, err := b.operator.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, AggregateTaxaError(err)
	}
	defer rows.Close()

	var res []taxon
	for rows.Next() {
		var t taxon
		var name, family sql.NullString
		err = rows.Scan(&t.taxonID, &name, &family,
			&t.occurrencesCount, &t.multimediaCount)
		if err != nil {
			return nil, AggregateTaxaError(err)
		}
		t.scientificName = name.String
		t.family = family.String
		res = append(res, t)
	}
	if err = rows.Err(); err != nil {
		return nil, AggregateTaxaError(err)
	}
	return res, nil
}

// insertTaxa replaces the content of the taxa table in one transaction.
func (b *builder) insertTaxa(ctx context.Context, taxa []taxon) error {
	d := b.operator.Dialect()
	tx, err := b.operator.DB().BeginTx(ctx, nil)
	if err != nil {
		return AggregateTaxaError(err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+d.Quote(TaxaTable)); err != nil {
		return AggregateTaxaError(err)
	}

	batch := min(max(b.cfg.Database.BatchSize, 1), d.RowsPerStatement(len(taxaColumns)))
	bar := pb.Full.Start(len(taxa))
	bar.Set("prefix", "Inserting taxa: ")
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	for start := 0; start < len(taxa); start += batch {
		chunk := taxa[start:min(start+batch, len(taxa))]
		args := make([]any, 0, len(chunk)*len(taxaColumns))
		for _, t := range chunk {
			var nameID string
			if t.scientificName != "" {
				nameID = gnuuid.New(t.scientificName).String()
			}
			args = append(args, nameID, t.taxonID, t.scientificName, t.family,
				t.occurrencesCount, t.multimediaCount)
		}
		q := d.InsertRows(TaxaTable, taxaColumns, len(chunk))
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return AggregateTaxaError(err)
		}
		bar.Add(len(chunk))
	}

	if err = tx.Commit(); err != nil {
		return AggregateTaxaError(err)
	}
	return nil
}
