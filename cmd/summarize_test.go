package cmd

import (
	"bytes"
	"testing"

	"github.com/gnames/dwca-tools/internal/ioarchive"
	"github.com/gnames/dwca-tools/internal/iotesting"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetSummarizeCmd_Subcommands verifies summarize subcommands.
func TestGetSummarizeCmd_Subcommands(t *testing.T) {
	cmd := getSummarizeCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "summarize", cmd.Use)
	assert.Contains(t, cmd.Aliases, "sum")

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"files", "taxa"}, names)
}

// TestGetSummarizeTaxaCmd_Flags verifies taxa flags and defaults.
func TestGetSummarizeTaxaCmd_Flags(t *testing.T) {
	cmd := getSummarizeTaxaCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"group-by", "g", "scientificName"},
		{"show-mismatched-names", "", "false"},
		{"limit", "n", "20"},
		{"species-only", "", "false"},
		{"image-counts", "", "false"},
		{"canonical", "", "false"},
		{"format", "", "table"},
	}

	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "--%s flag should exist", tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand, tt.name)
		assert.Equal(t, tt.defValue, flag.DefValue, tt.name)
	}
}

// TestSummarizeFiles verifies the archive listing.
func TestSummarizeFiles(t *testing.T) {
	cfg = config.New()
	archive := iotesting.FixtureFile(t)

	cmd := getSummarizeFilesCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{archive})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "meta.xml")
	assert.Contains(t, output, "occurrence.txt")
	assert.Contains(t, output, "Total: 3 files, 0 directories")
	assert.Contains(t, output, "occurrence (core)")
	assert.Contains(t, output, "verbatimScientificName")
}

// TestPrintZipSummary verifies sampling of large directories.
func TestPrintZipSummary(t *testing.T) {
	sum := ioarchive.ZipSummary{
		RootFiles: []dwca.ArchiveEntry{{Name: "meta.xml", Size: 2048}},
		Dirs: []ioarchive.DirSummary{
			{
				Name:  "dataset",
				Files: []dwca.ArchiveEntry{{Name: "dataset/a.xml", Size: 10}},
				Total: 1200,
			},
		},
		TotalFiles: 1201,
	}

	buf := new(bytes.Buffer)
	printZipSummary(buf, sum)

	output := buf.String()
	assert.Contains(t, output, "2.0 kB")
	assert.Contains(t, output, "dataset/a.xml")
	assert.Contains(t, output, "1,200 files (sample shown above)")
	assert.Contains(t, output, "Total: 1,201 files, 1 directories")
}

// TestSummarizeTaxa_JSON verifies JSON output of the taxa summary.
func TestSummarizeTaxa_JSON(t *testing.T) {
	cfg = config.New()
	archive := iotesting.FixtureFile(t)

	cmd := getSummarizeTaxaCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{archive, "-n", "2", "--format", "json"})

	err := cmd.Execute()
	require.NoError(t, err)

	var res dwca.TaxaSummary
	err = json.Unmarshal(buf.Bytes(), &res)
	require.NoError(t, err)

	assert.Equal(t, dwca.GroupByScientificName, res.GroupBy)
	assert.Equal(t, 5, res.TotalGroups)
	assert.Equal(t, 20, res.TotalOccurrences)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "Danaus plexippus", res.Results[0].Name)
	assert.Equal(t, "Pieris rapae", res.Results[1].Name)
}

// TestSummarizeTaxa_Table verifies table output of the taxa summary.
func TestSummarizeTaxa_Table(t *testing.T) {
	cfg = config.New()
	archive := iotesting.FixtureFile(t)

	cmd := getSummarizeTaxaCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{
		archive, "-g", "verbatimScientificName", "--show-mismatched-names",
		"-n", "0",
	})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Showing 9 of 9 taxa grouped by verbatimScientificName")
	assert.Contains(t, output, "TAXON IDS")
	assert.Contains(t, output, "Swallowtail")
	assert.NotContains(t, output, "IMAGES")
	assert.Contains(t, output, "Total occurrences: 20")
}

// TestSummarizeTaxa_BadFormat verifies rejection of unknown formats.
func TestSummarizeTaxa_BadFormat(t *testing.T) {
	cmd := getSummarizeTaxaCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"archive.zip", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)

	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "Error should be *gn.Error")
	assert.Equal(t, errcode.InvalidFlagError, gnErr.Code)
	assert.Equal(t, []any{"xml"}, gnErr.Vars)
}

// TestPrintJSON_ZeroCounts verifies that zero counts stay in JSON, so
// that consumers can tell zero from an absent field.
func TestPrintJSON_ZeroCounts(t *testing.T) {
	summary := dwca.TaxaSummary{
		GroupBy:         dwca.GroupByScientificName,
		MismatchedNames: true,
		ImageCounts:     true,
		Results: []dwca.TaxaResult{
			{Name: "Papilio polyxenes", OccurrenceCount: 1},
		},
		TotalGroups:      1,
		TotalOccurrences: 1,
	}

	buf := new(bytes.Buffer)
	require.NoError(t, printJSON(buf, summary))

	for _, field := range []string{
		`"imageCount": 0`,
		`"taxonIdCount": 0`,
		`"scientificNameCount": 0`,
	} {
		assert.Contains(t, buf.String(), field)
	}
	assert.NotContains(t, buf.String(), `"warning"`)
}
