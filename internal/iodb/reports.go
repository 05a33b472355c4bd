package iodb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// Names of canned reports on a loaded archive.
const (
	ReportOccurrencesPerTaxon = "occurrences_per_taxon"
	ReportMultimediaPerTaxon  = "multimedia_per_taxon"
	ReportHighestOccurrences  = "highest_occurrences"
	ReportHighestMultimedia   = "highest_multimedia"
	ReportFamilySummary       = "family_summary"
	ReportTaxaWithNoEntries   = "taxa_with_no_entries"
)

// DefaultReportLimit is the number of rows of "highest" reports.
const DefaultReportLimit = 10

// ReportResult holds the rows of one report. NULL values are empty
// strings.
type ReportResult struct {
	Name    string     `json:"name"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// colFunc returns the quoted stored name of a column of a table.
type colFunc func(table, col string) string

type report struct {
	name  string
	title string
	// needs lists required columns per table
	needs map[string][]string
	query func(d db.Dialect, c colFunc, limit int) string
}

var (
	occTaxon = map[string][]string{
		dwca.OccurrenceTable: {dwca.ColTaxonID},
	}
	occMultimedia = map[string][]string{
		dwca.OccurrenceTable: {dwca.ColTaxonID, dwca.ColGbifID},
		dwca.MultimediaTable: {dwca.ColGbifID},
	}
)

var reports = []report{
	{
		name:  ReportOccurrencesPerTaxon,
		title: "Occurrences per taxon",
		needs: occTaxon,
		query: func(d db.Dialect, c colFunc, _ int) string {
			return occurrencesQuery(d, c) + "\nORDER BY 1"
		},
	},
	{
		name:  ReportMultimediaPerTaxon,
		title: "Multimedia per taxon",
		needs: occMultimedia,
		query: func(d db.Dialect, c colFunc, _ int) string {
			return multimediaQuery(d, c) + "\nORDER BY 1"
		},
	},
	{
		name:  ReportHighestOccurrences,
		title: "Taxa with the most occurrences",
		needs: occTaxon,
		query: func(d db.Dialect, c colFunc, limit int) string {
			return fmt.Sprintf("%s\nORDER BY 2 DESC, 1\nLIMIT %d",
				occurrencesQuery(d, c), limit)
		},
	},
	{
		name:  ReportHighestMultimedia,
		title: "Taxa with the most multimedia",
		needs: occMultimedia,
		query: func(d db.Dialect, c colFunc, limit int) string {
			return fmt.Sprintf("%s\nORDER BY 2 DESC, 1\nLIMIT %d",
				multimediaQuery(d, c), limit)
		},
	},
	{
		name:  ReportFamilySummary,
		title: "Occurrences per family",
		needs: map[string][]string{dwca.OccurrenceTable: {dwca.ColFamily}},
		query: func(d db.Dialect, c colFunc, _ int) string {
			family := c(dwca.OccurrenceTable, dwca.ColFamily)
			return fmt.Sprintf(`SELECT o.%[1]s, COUNT(*) AS family_count
FROM %[2]s o
GROUP BY o.%[1]s
ORDER BY 1`, family, d.Quote(dwca.OccurrenceTable))
		},
	},
	{
		name:  ReportTaxaWithNoEntries,
		title: "Taxa without occurrences or multimedia",
		needs: map[string][]string{
			dwca.TaxaTable: {dwca.ColTaxonID, "occurrences_count", "multimedia_count"},
		},
		query: func(d db.Dialect, c colFunc, _ int) string {
			return fmt.Sprintf(`SELECT t.%[1]s
FROM %[2]s t
WHERE t.%[3]s = 0 OR t.%[4]s = 0
ORDER BY 1`,
				c(dwca.TaxaTable, dwca.ColTaxonID),
				d.Quote(dwca.TaxaTable),
				c(dwca.TaxaTable, "occurrences_count"),
				c(dwca.TaxaTable, "multimedia_count"),
			)
		},
	},
}

func occurrencesQuery(d db.Dialect, c colFunc) string {
	return fmt.Sprintf(`SELECT o.%[1]s, COUNT(*) AS occurrence_count
FROM %[2]s o
GROUP BY o.%[1]s`,
		c(dwca.OccurrenceTable, dwca.ColTaxonID),
		d.Quote(dwca.OccurrenceTable),
	)
}

func multimediaQuery(d db.Dialect, c colFunc) string {
	return fmt.Sprintf(`SELECT o.%[1]s, COUNT(m.%[2]s) AS multimedia_count
FROM %[3]s o
JOIN %[4]s m ON o.%[5]s = m.%[2]s
GROUP BY o.%[1]s`,
		c(dwca.OccurrenceTable, dwca.ColTaxonID),
		c(dwca.MultimediaTable, dwca.ColGbifID),
		d.Quote(dwca.OccurrenceTable),
		d.Quote(dwca.MultimediaTable),
		c(dwca.OccurrenceTable, dwca.ColGbifID),
	)
}

// ReportNames returns names of all reports.
func ReportNames() []string {
	res := make([]string, len(reports))
	for i, r := range reports {
		res[i] = r.name
	}
	return res
}

// DefaultReports are the reports shown after a conversion.
func DefaultReports() []string {
	return []string{
		ReportOccurrencesPerTaxon,
		ReportMultimediaPerTaxon,
		ReportHighestOccurrences,
		ReportHighestMultimedia,
		ReportFamilySummary,
	}
}

func findReport(name string) (report, bool) {
	for _, r := range reports {
		if r.name == name {
			return r, true
		}
	}
	return report{}, false
}

// AvailableReports filters names down to reports whose tables and
// columns exist in the database.
func AvailableReports(
	ctx context.Context,
	op db.Operator,
	names []string,
) ([]string, error) {
	if op.DB() == nil {
		return nil, NotConnectedError()
	}
	var res []string
	for _, name := range names {
		r, ok := findReport(name)
		if !ok {
			return nil, UnknownReportError(name, ReportNames())
		}
		_, err := resolveColumns(ctx, op, r)
		var gnErr *gn.Error
		switch {
		case err == nil:
			res = append(res, name)
		case errors.As(err, &gnErr) && gnErr.Code == errcode.DBReportColumnError:
			slog.Debug("Skipping report", "report", name, "reason", gnErr.Err)
		default:
			return nil, err
		}
	}
	return res, nil
}

// RunReport runs a report by name. The limit applies to "highest"
// reports, a non-positive limit means DefaultReportLimit.
func RunReport(
	ctx context.Context,
	op db.Operator,
	name string,
	limit int,
) (*ReportResult, error) {
	if op.DB() == nil {
		return nil, NotConnectedError()
	}
	r, ok := findReport(name)
	if !ok {
		return nil, UnknownReportError(name, ReportNames())
	}
	if limit <= 0 {
		limit = DefaultReportLimit
	}

	c, err := resolveColumns(ctx, op, r)
	if err != nil {
		return nil, err
	}

	q := r.query(op.Dialect(), c, limit)
	slog.Debug("Running report", "report", name, "sql", q)
	cols, rows, err := queryRows(ctx, op, q)
	if err != nil {
		return nil, QueryTablesError(name, err)
	}
	return &ReportResult{
		Name:    r.name,
		Title:   r.title,
		Columns: cols,
		Rows:    rows,
	}, nil
}

// resolveColumns maps required columns to their stored names, matched
// case-insensitively.
func resolveColumns(
	ctx context.Context,
	op db.Operator,
	r report,
) (colFunc, error) {
	d := op.Dialect()
	stored := make(map[string]string)
	for table, cols := range r.needs {
		have, err := op.Columns(ctx, table)
		if err != nil {
			return nil, err
		}
		for _, col := range cols {
			name, ok := matchColumn(have, col)
			if !ok {
				return nil, ReportColumnError(r.name, table, col)
			}
			stored[table+"."+col] = d.Quote(name)
		}
	}
	return func(table, col string) string {
		return stored[table+"."+col]
	}, nil
}

func matchColumn(have []string, col string) (string, bool) {
	for _, v := range have {
		if strings.EqualFold(v, col) {
			return v, true
		}
	}
	return "", false
}

// queryRows reads all rows of a query as strings.
func queryRows(
	ctx context.Context,
	op db.Operator,
	q string,
) ([]string, [][]string, error) {
	rows, err := op.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var res [][]string
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err = rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		res = append(res, row)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, res, nil
}
