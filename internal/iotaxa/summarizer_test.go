package iotaxa_test

import (
	"context"
	"testing"

	"github.com/gnames/dwca-tools/internal/iotaxa"
	"github.com/gnames/dwca-tools/internal/iotesting"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summarize(
	t *testing.T,
	entries []iotesting.Entry,
	opts ...config.Option,
) (*dwca.TaxaSummary, error) {
	fs := afero.NewMemMapFs()
	path := iotesting.WriteArchive(t, fs, "/data/test.zip", entries)
	cfg := config.New()
	cfg.Update(opts)
	return iotaxa.New(cfg, fs).Summarize(context.Background(), path)
}

// occurrenceArchive builds an archive with one occurrence table.
func occurrenceArchive(header []string, rows [][]string) []iotesting.Entry {
	terms := make([]string, len(header))
	for i, v := range header {
		terms[i] = "http://rs.tdwg.org/dwc/terms/" + v
	}
	meta := iotesting.MetaXML(iotesting.MetaTable{
		RowType:  "http://rs.tdwg.org/dwc/terms/Occurrence",
		Location: "occurrence.txt",
		Terms:    terms,
	})
	return []iotesting.Entry{
		{Name: "meta.xml", Content: meta},
		{Name: "occurrence.txt", Content: iotesting.TSV(header, rows)},
	}
}

func TestSummarizeScientificName(t *testing.T) {
	res, err := summarize(t, iotesting.FixtureEntries(),
		config.OptTaxaImageCounts(true))
	require.NoError(t, err)

	assert.Equal(t, dwca.GroupByScientificName, res.GroupBy)
	assert.Equal(t, 5, res.TotalGroups)
	assert.Equal(t, iotesting.OccurrenceRows, res.TotalOccurrences)
	assert.Equal(t, iotaxa.ImageCountsWarning, res.Warning)
	assert.True(t, res.ImageCounts)

	exp := []dwca.TaxaResult{
		{Name: "Danaus plexippus", OccurrenceCount: 5, ImageCount: 3},
		{Name: "Pieris rapae", OccurrenceCount: 5, ImageCount: 2},
		{Name: "Vanessa cardui", OccurrenceCount: 5, ImageCount: 3},
		{Name: "Papilio machaon", OccurrenceCount: 4, ImageCount: 2},
		{Name: "Papilio polyxenes", OccurrenceCount: 1, ImageCount: 0},
	}
	assert.Equal(t, exp, res.Results)

	var images int
	for _, v := range res.Results {
		images += v.ImageCount
	}
	assert.Equal(t, iotesting.MultimediaRows, images)
}

func TestSummarizeVerbatimName(t *testing.T) {
	res, err := summarize(t, iotesting.FixtureEntries(),
		config.OptTaxaGroupBy("verbatimScientificName"),
		config.OptTaxaMismatchedNames(true),
	)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, 9, res.TotalGroups)

	exp := []dwca.TaxaResult{
		{Name: "Swallowtail", OccurrenceCount: 4, TaxonIDCount: 2, SciNameCount: 2},
		{Name: "Cabbage White", OccurrenceCount: 3, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Monarch Butterfly", OccurrenceCount: 3, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Painted Lady", OccurrenceCount: 3, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Pieris rapae", OccurrenceCount: 2, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Vanessa cardui", OccurrenceCount: 2, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Danaus plexippus", OccurrenceCount: 1, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Monarch", OccurrenceCount: 1, TaxonIDCount: 1, SciNameCount: 1},
		{Name: "Papilio machaon", OccurrenceCount: 1, TaxonIDCount: 1, SciNameCount: 1},
	}
	assert.Equal(t, exp, res.Results)
}

func TestSummarizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		len   int
	}{
		{"limits results", 2, 2},
		{"zero keeps all", 0, 5},
		{"large limit", 100, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := summarize(t, iotesting.FixtureEntries(),
				config.OptTaxaLimit(tt.limit))
			require.NoError(t, err)
			assert.Len(t, res.Results, tt.len)
			assert.Equal(t, 5, res.TotalGroups)
		})
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	first, err := summarize(t, iotesting.FixtureEntries(),
		config.OptTaxaGroupBy("verbatimScientificName"))
	require.NoError(t, err)
	for range 5 {
		res, err := summarize(t, iotesting.FixtureEntries(),
			config.OptTaxaGroupBy("verbatimScientificName"))
		require.NoError(t, err)
		assert.Equal(t, first.Results, res.Results)
	}
}

func TestSummarizeSpeciesOnly(t *testing.T) {
	header := []string{"gbifID", "scientificName", "taxonRank"}
	rows := [][]string{
		{"1", "Danaus plexippus", "SPECIES"},
		{"2", "Danaus plexippus", "species"},
		{"3", "Danaus", "GENUS"},
		{"4", "Nymphalidae", "FAMILY"},
		{"5", "Pieris rapae", "Species"},
		{"6", "Pieris rapae napi", "SUBSPECIES"},
	}

	res, err := summarize(t, occurrenceArchive(header, rows),
		config.OptTaxaSpeciesOnly(true))
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalOccurrences)
	assert.Equal(t, []dwca.TaxaResult{
		{Name: "Danaus plexippus", OccurrenceCount: 2},
		{Name: "Pieris rapae", OccurrenceCount: 1},
	}, res.Results)
}

func TestSummarizeEmptyKey(t *testing.T) {
	header := []string{"gbifID", "scientificName", "taxonID"}
	rows := [][]string{
		{"1", "", ""},
		{"2", "", "7"},
		{"3", "Pieris rapae", "4"},
	}

	res, err := summarize(t, occurrenceArchive(header, rows),
		config.OptTaxaMismatchedNames(true))
	require.NoError(t, err)
	assert.Equal(t, []dwca.TaxaResult{
		{Name: "", OccurrenceCount: 2, TaxonIDCount: 1},
		{Name: "Pieris rapae", OccurrenceCount: 1, TaxonIDCount: 1, SciNameCount: 1},
	}, res.Results)
}

func TestSummarizeCanonical(t *testing.T) {
	header := []string{"gbifID", "scientificName"}
	rows := [][]string{
		{"1", "Danaus plexippus (Linnaeus, 1758)"},
		{"2", "Danaus plexippus"},
		{"3", "Danaus plexippus (Linnaeus, 1758)"},
		{"4", "Pieris rapae L."},
	}

	res, err := summarize(t, occurrenceArchive(header, rows))
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalGroups, "raw names are not merged")

	res, err = summarize(t, occurrenceArchive(header, rows),
		config.OptTaxaCanonical(true))
	require.NoError(t, err)
	assert.Equal(t, []dwca.TaxaResult{
		{Name: "Danaus plexippus", OccurrenceCount: 3},
		{Name: "Pieris rapae", OccurrenceCount: 1},
	}, res.Results)
}

func TestSummarizeErrors(t *testing.T) {
	noOcc := []iotesting.Entry{
		{Name: "meta.xml", Content: iotesting.MetaXML(iotesting.MetaTable{
			RowType:  "http://rs.gbif.org/terms/1.0/Multimedia",
			Location: "multimedia.txt",
			Terms:    []string{"http://rs.gbif.org/terms/1.0/gbifID"},
		})},
		{Name: "multimedia.txt", Content: "gbifID\n1\n"},
	}

	tests := []struct {
		name    string
		entries []iotesting.Entry
		opts    []config.Option
		code    gn.ErrorCode
		vars    []any
	}{
		{
			name:    "species only without rank",
			entries: iotesting.FixtureEntries(),
			opts:    []config.Option{config.OptTaxaSpeciesOnly(true)},
			code:    errcode.MissingColumnError,
		},
		{
			name: "group column absent",
			entries: occurrenceArchive(
				[]string{"gbifID", "taxonID"},
				[][]string{{"1", "2"}},
			),
			code: errcode.MissingColumnError,
			vars: []any{"scientificName", "gbifID, taxonID"},
		},
		{
			name:    "no occurrence table",
			entries: noOcc,
			code:    errcode.AggregateTaxaError,
		},
		{
			name:    "no manifest",
			entries: []iotesting.Entry{{Name: "occurrence.txt", Content: "gbifID\n"}},
			code:    errcode.ArchiveFormatError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := summarize(t, tt.entries, tt.opts...)
			require.Error(t, err)
			gnErr, ok := err.(*gn.Error)
			require.True(t, ok, "Error should be of type *gn.Error")
			assert.Equal(t, tt.code, gnErr.Code)
			if tt.vars != nil {
				assert.Equal(t, tt.vars, gnErr.Vars)
			}
		})
	}
}

func TestSummarizeCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := iotesting.FixtureArchive(t, fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := iotaxa.New(config.New(), fs).Summarize(ctx, path)
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "Error should be of type *gn.Error")
	assert.Equal(t, errcode.CancelledError, gnErr.Code)
}
