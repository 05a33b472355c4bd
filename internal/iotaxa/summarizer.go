// Package iotaxa implements TaxaSummarizer interface. It groups
// occurrences of a Darwin Core Archive into taxa in one streaming pass,
// without loading the archive into a database.
package iotaxa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/dwca-tools/internal/ioarchive"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/lifecycle"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnparser"
	"github.com/spf13/afero"
)

// ImageCountsWarning recommends the database path for image counts of
// large archives.
const ImageCountsWarning = `Image counting keeps all occurrence IDs in memory.
For large archives (>1M occurrences) load the archive into a database instead:

    dwca-tools convert archive.zip --db-url sqlite:///data.db
    dwca-tools aggregate taxa sqlite:///data.db`

// batchSize is the number of rows read at once.
const batchSize = 10_000

// taxaGroup accumulates one group of occurrences.
type taxaGroup struct {
	count    int
	gbifIDs  map[string]struct{}
	taxonIDs map[string]struct{}
	sciNames map[string]struct{}
}

type summarizer struct {
	cfg *config.Config
	fs  afero.Fs
	prs gnparser.GNparser

	// canonical caches canonical forms of raw names
	canonical map[string]string

	// warn shows non-fatal notes to the user
	warn func(string)
}

// New creates a TaxaSummarizer reading archives from fs.
func New(cfg *config.Config, fs afero.Fs) lifecycle.TaxaSummarizer {
	res := &summarizer{cfg: cfg, fs: fs, warn: warnUser}
	if cfg.Taxa.Canonical {
		res.prs = gnparser.New(gnparser.NewConfig())
		res.canonical = make(map[string]string)
	}
	return res
}

// Summarize groups occurrences by the configured column.
func (s *summarizer) Summarize(
	ctx context.Context,
	archivePath string,
) (*dwca.TaxaSummary, error) {
	startTime := time.Now()
	tcfg := s.cfg.Taxa

	arc, err := ioarchive.Open(s.fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer arc.Close()

	tables, err := arc.Tables(s.cfg.MetaFile)
	if err != nil {
		return nil, err
	}
	occ, ok := dwca.FindTable(tables, dwca.OccurrenceTable)
	if !ok {
		return nil, NoOccurrenceError(archivePath)
	}
	if err = checkColumns(occ, tcfg); err != nil {
		return nil, err
	}

	res := &dwca.TaxaSummary{
		GroupBy:         tcfg.GroupBy,
		MismatchedNames: tcfg.MismatchedNames,
		ImageCounts:     tcfg.ImageCounts,
	}

	mm, hasMM := dwca.FindTable(tables, dwca.MultimediaTable)
	if tcfg.ImageCounts && hasMM {
		res.Warning = ImageCountsWarning
		s.warn(res.Warning)
	}

	groups, total, err := s.aggregateOccurrences(ctx, arc, occ)
	if err != nil {
		return nil, err
	}
	res.TotalOccurrences = total

	var images map[string]int
	if tcfg.ImageCounts && hasMM {
		images, err = s.aggregateImages(ctx, arc, mm)
		if err != nil {
			return nil, err
		}
	}

	res.Results = buildResults(groups, images)
	res.TotalGroups = len(res.Results)
	res.Limit(tcfg.Limit)

	slog.Info("Taxa summary complete",
		"archive", archivePath,
		"group_by", tcfg.GroupBy.String(),
		"groups", res.TotalGroups,
		"occurrences", res.TotalOccurrences,
		"duration", gnfmt.TimeString(time.Since(startTime).Seconds()),
	)
	return res, nil
}

// checkColumns verifies that the manifest declares every column the
// summary filters or groups by.
func checkColumns(occ dwca.TableDefinition, tcfg config.TaxaConfig) error {
	if !occ.HasColumn(tcfg.GroupBy.String()) {
		return MissingColumnError(tcfg.GroupBy.String(), occ.ColumnNames())
	}
	if tcfg.SpeciesOnly && !occ.HasColumn(dwca.ColTaxonRank) {
		return MissingColumnError(dwca.ColTaxonRank, occ.ColumnNames())
	}
	return nil
}

// neededColumns returns the minimal set of columns for the summary.
func neededColumns(tcfg config.TaxaConfig) []string {
	res := []string{tcfg.GroupBy.String()}
	add := func(col string) {
		for _, v := range res {
			if v == col {
				return
			}
		}
		res = append(res, col)
	}
	if tcfg.ImageCounts {
		add(dwca.ColGbifID)
	}
	if tcfg.MismatchedNames {
		add(dwca.ColTaxonID)
		add(dwca.ColScientificName)
	}
	if tcfg.SpeciesOnly {
		add(dwca.ColTaxonRank)
	}
	return res
}

// columnIndex maps needed columns to header positions. Columns absent
// from the header are left out.
func columnIndex(header, cols []string) map[string]int {
	res := make(map[string]int, len(cols))
	for _, col := range cols {
		for i, h := range header {
			if h == col {
				res[col] = i
				break
			}
		}
	}
	return res
}

func (s *summarizer) aggregateOccurrences(
	ctx context.Context,
	arc *ioarchive.Archive,
	occ dwca.TableDefinition,
) (map[string]*taxaGroup, int, error) {
	tcfg := s.cfg.Taxa
	cr, err := arc.ChunkReader(occ.Filename, batchSize)
	if err != nil {
		return nil, 0, err
	}
	defer cr.Close()

	cols := neededColumns(tcfg)
	idx := columnIndex(cr.Header(), cols)
	groupCol := tcfg.GroupBy.String()
	if _, ok := idx[groupCol]; !ok {
		return nil, 0, MissingColumnError(groupCol, cr.Header())
	}
	if _, ok := idx[dwca.ColTaxonRank]; tcfg.SpeciesOnly && !ok {
		return nil, 0, MissingColumnError(dwca.ColTaxonRank, cr.Header())
	}
	slog.Debug("Reading occurrence columns", "columns", cols)

	bar := newProgressBar(int(arc.EntrySize(occ.Filename)), "Reading occurrences: ")
	defer bar.Finish()

	field := func(row []string, col string) string {
		if i, ok := idx[col]; ok {
			return row[i]
		}
		return ""
	}

	groups := make(map[string]*taxaGroup)
	var total int
	for {
		if err = ctx.Err(); err != nil {
			return nil, 0, CancelledError(err)
		}
		rows, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		for _, row := range rows {
			bar.Add(rowSize(row))
			if tcfg.SpeciesOnly &&
				strings.ToUpper(field(row, dwca.ColTaxonRank)) != "SPECIES" {
				continue
			}

			key := s.groupKey(field(row, groupCol))
			g, ok := groups[key]
			if !ok {
				g = newTaxaGroup(tcfg)
				groups[strings.Clone(key)] = g
			}
			g.count++
			total++

			if tcfg.ImageCounts {
				addValue(g.gbifIDs, field(row, dwca.ColGbifID))
			}
			if tcfg.MismatchedNames {
				addValue(g.taxonIDs, field(row, dwca.ColTaxonID))
				addValue(g.sciNames, field(row, dwca.ColScientificName))
			}
		}
	}
	return groups, total, nil
}

// groupKey returns the raw value, or its canonical form when names are
// merged by canonical forms. Unparseable names stay as they are.
func (s *summarizer) groupKey(name string) string {
	if s.canonical == nil || name == "" {
		return name
	}
	if res, ok := s.canonical[name]; ok {
		return res
	}
	name = strings.Clone(name)
	res := name
	if parsed := s.prs.ParseName(name); parsed.Parsed {
		res = parsed.Canonical.Simple
	}
	s.canonical[name] = res
	return res
}

// aggregateImages counts multimedia rows per gbifID.
func (s *summarizer) aggregateImages(
	ctx context.Context,
	arc *ioarchive.Archive,
	mm dwca.TableDefinition,
) (map[string]int, error) {
	cr, err := arc.ChunkReader(mm.Filename, batchSize)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	idx := columnIndex(cr.Header(), []string{dwca.ColGbifID})
	i, ok := idx[dwca.ColGbifID]
	if !ok {
		slog.Warn("Multimedia has no gbifID column, images are not counted")
		return nil, nil
	}

	res := make(map[string]int)
	for {
		if err = ctx.Err(); err != nil {
			return nil, CancelledError(err)
		}
		rows, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			id := row[i]
			if id == "" {
				continue
			}
			if _, ok := res[id]; !ok {
				id = strings.Clone(id)
			}
			res[id]++
		}
	}
}

func buildResults(
	groups map[string]*taxaGroup,
	images map[string]int,
) []dwca.TaxaResult {
	res := make([]dwca.TaxaResult, 0, len(groups))
	for name, g := range groups {
		var imgCount int
		for id := range g.gbifIDs {
			imgCount += images[id]
		}
		res = append(res, dwca.TaxaResult{
			Name:            name,
			OccurrenceCount: g.count,
			ImageCount:      imgCount,
			TaxonIDCount:    len(g.taxonIDs),
			SciNameCount:    len(g.sciNames),
		})
	}
	dwca.SortTaxaResults(res)
	return res
}

// newTaxaGroup allocates only the sets the summary needs.
func newTaxaGroup(tcfg config.TaxaConfig) *taxaGroup {
	res := &taxaGroup{}
	if tcfg.ImageCounts {
		res.gbifIDs = make(map[string]struct{})
	}
	if tcfg.MismatchedNames {
		res.taxonIDs = make(map[string]struct{})
		res.sciNames = make(map[string]struct{})
	}
	return res
}

// addValue copies v into the set, so that the set does not keep the
// whole data line alive.
func addValue(set map[string]struct{}, v string) {
	if v == "" {
		return
	}
	if _, ok := set[v]; !ok {
		set[strings.Clone(v)] = struct{}{}
	}
}

func warnUser(msg string) {
	gn.Warn("%s", msg)
}

// rowSize approximates the number of bytes a row took in the file.
func rowSize(row []string) int {
	res := len(row)
	for _, v := range row {
		res += len(v)
	}
	return res
}

func newProgressBar(total int, prefix string) *pb.ProgressBar {
	bar := pb.Full.Start(total)
	bar.Set("prefix", prefix)
	bar.Set(pb.Bytes, true)
	bar.Set(pb.CleanOnFinish, true)
	return bar
}
