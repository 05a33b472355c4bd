package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/gnames/dwca-tools/internal/iodb"
	"github.com/gnames/dwca-tools/internal/iotesting"
	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetConvertCmd_Exists verifies getConvertCmd returns
// a valid command.
func TestGetConvertCmd_Exists(t *testing.T) {
	cmd := getConvertCmd()
	require.NotNil(t, cmd, "Convert command should exist")
	assert.Equal(t, "convert <archive>", cmd.Use)
	assert.NotNil(t, cmd.RunE, "RunE should be set")
}

// TestGetConvertCmd_Descriptions verifies short and long descriptions.
func TestGetConvertCmd_Descriptions(t *testing.T) {
	cmd := getConvertCmd()

	assert.Contains(t, cmd.Short, "Darwin Core Archive")
	assert.Contains(t, cmd.Long, "meta.xml")
	assert.Contains(t, cmd.Long, "sqlite:///")
	assert.Contains(t, cmd.Long, "COPY",
		"Long description should mention the PostgreSQL path")
}

// TestGetConvertCmd_Flags verifies convert flags.
func TestGetConvertCmd_Flags(t *testing.T) {
	cmd := getConvertCmd()

	tests := []struct {
		name      string
		shorthand string
		usage     string
	}{
		{"db-url", "", "database URL"},
		{"batch-size", "b", "rows per batch"},
		{"jobs", "j", "workers"},
		{"meta", "", "manifest"},
		{"all-columns", "", "columns of interest"},
		{"report", "", "default reports"},
	}

	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "--%s flag should exist", tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand, tt.name)
		assert.Contains(t, flag.Usage, tt.usage, tt.name)
	}
}

// TestGetConvertCmd_Args verifies that an archive is required.
func TestGetConvertCmd_Args(t *testing.T) {
	cmd := getConvertCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.Error(t, err, "Should fail without an archive")
}

// convertFixture loads the fixture archive into a fresh SQLite database
// and returns its URL.
func convertFixture(t *testing.T, args ...string) (string, string) {
	t.Helper()

	cfg = config.New()
	archive := iotesting.FixtureFile(t)
	url := iotesting.SQLiteURL(t)

	cmd := getConvertCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs(append([]string{archive, "--db-url", url, "-b", "7"}, args...))

	err := cmd.Execute()
	require.NoError(t, err)
	return url, buf.String()
}

// TestConvert_SQLite verifies conversion through the command.
func TestConvert_SQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping conversion test in short mode")
	}

	url, output := convertFixture(t, "--all-columns")

	assert.Contains(t, output, "ESTIMATED")
	assert.Contains(t, output, "occurrence.txt")
	assert.Contains(t, output, "multimedia.txt")
	assert.Contains(t, output, "SQL tables:")
	assert.Contains(t, output, "Loaded 30 rows")
	assert.Equal(t, 7, cfg.Database.BatchSize)
	assert.Nil(t, cfg.ColumnsOfInterest("occurrence"))

	op := iodb.New()
	err := op.Connect(context.Background(), &config.DatabaseConfig{URL: url})
	require.NoError(t, err)
	defer op.Close()

	cols, err := op.Columns(context.Background(), "occurrence")
	require.NoError(t, err)
	assert.Contains(t, cols, "verbatimScientificName",
		"All columns should be stored")
}

// TestConvert_Report verifies reports shown after loading.
func TestConvert_Report(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping conversion test in short mode")
	}

	_, output := convertFixture(t, "--all-columns", "--report")
	assert.Contains(t, output, "Occurrences per taxon:")
	assert.Contains(t, output, "Taxa with the most multimedia:")
	assert.Contains(t, output, "Nymphalidae")
	assert.NotContains(t, output, "Taxa without occurrences")
}

// TestConvert_DefaultURL verifies that the database is named after
// the archive.
func TestConvert_DefaultURL(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg = config.New()
	cmd := getConvertCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"/absent/dir/0012345-240101.zip"})

	err := cmd.Execute()
	assert.Error(t, err)
	assert.Equal(t, "sqlite:///0012345-240101.db", cfg.Database.URL)
}

// TestPrintConvertReport verifies the per-table report.
func TestPrintConvertReport(t *testing.T) {
	report := &dwca.ConvertReport{
		Tables: []dwca.TableReport{
			{
				Name:      "occurrence",
				Filename:  "occurrence.txt",
				Estimated: 12345,
				Inserted:  12345,
				Columns:   []string{"gbifID", "scientificName"},
				Indexes:   []string{"idx_occurrence_gbifID"},
			},
			{Name: "multimedia", Filename: "multimedia.txt"},
		},
	}

	buf := new(bytes.Buffer)
	printConvertReport(buf, report)

	output := buf.String()
	assert.Contains(t, output, "12,345")
	assert.Contains(t, output, "idx_occurrence_gbifID")
	assert.Contains(t, output, "multimedia.txt")
}
