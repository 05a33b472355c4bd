package cmd

import (
	"bytes"
	"testing"

	"github.com/gnames/dwca-tools/internal/iodb"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetReportCmd_Flags verifies report flags.
func TestGetReportCmd_Flags(t *testing.T) {
	cmd := getReportCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "report <db-url>", cmd.Use)
	assert.Contains(t, cmd.Long, iodb.ReportTaxaWithNoEntries)

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"name", "q", "[]"},
		{"limit", "n", "10"},
		{"format", "", "table"},
	}

	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "--%s flag should exist", tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand, tt.name)
		assert.Equal(t, tt.defValue, flag.DefValue, tt.name)
	}
}

func runReportCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := getReportCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestReport_JSON verifies named reports with a limit.
func TestReport_JSON(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping report test in short mode")
	}

	url, _ := convertFixture(t, "--all-columns")
	out, err := runReportCmd(t, url,
		"-q", "highest_occurrences,family_summary", "-n", "2", "--format", "json")
	require.NoError(t, err)

	var res []iodb.ReportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res, 2)

	assert.Equal(t, iodb.ReportHighestOccurrences, res[0].Name)
	assert.Equal(t, [][]string{{"1", "5"}, {"2", "5"}}, res[0].Rows)
	assert.Equal(t, iodb.ReportFamilySummary, res[1].Name)
	assert.Equal(t, []string{"family", "family_count"}, res[1].Columns)
	assert.Len(t, res[1].Rows, 3)
}

// TestReport_Table verifies that all available reports run by default.
func TestReport_Table(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping report test in short mode")
	}

	url, _ := convertFixture(t, "--all-columns")

	tests := []struct {
		name      string
		aggregate bool
		taxa      bool
	}{
		{"before aggregate", false, false},
		{"after aggregate", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.aggregate {
				agg := getAggregateTaxaCmd()
				agg.SetOut(new(bytes.Buffer))
				agg.SetArgs([]string{url})
				require.NoError(t, agg.Execute())
			}

			out, err := runReportCmd(t, url)
			require.NoError(t, err)
			assert.Contains(t, out, "Occurrences per taxon:")
			assert.Contains(t, out, "Occurrences per family:")
			if tt.taxa {
				assert.Contains(t, out, "Taxa without occurrences or multimedia:")
			} else {
				assert.NotContains(t, out, "Taxa without occurrences")
			}
		})
	}
}

// TestReport_Errors verifies bad report names and formats.
func TestReport_Errors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping report test in short mode")
	}

	url, _ := convertFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown report", []string{url, "-q", "top_families"}},
		{"column not loaded", []string{url, "-q", "family_summary"}},
		{"bad format", []string{url, "--format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runReportCmd(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

// TestPrintReport_Empty verifies the note for reports without rows.
func TestPrintReport_Empty(t *testing.T) {
	buf := new(bytes.Buffer)
	printReport(buf, &iodb.ReportResult{
		Name:    iodb.ReportTaxaWithNoEntries,
		Title:   "Taxa without occurrences or multimedia",
		Columns: []string{"taxonID"},
	})
	assert.Equal(t,
		"Taxa without occurrences or multimedia:\nNo data found\n\n", buf.String())
}
