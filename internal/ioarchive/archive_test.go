package ioarchive_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gnames/dwca-tools/internal/ioarchive"
	"github.com/gnames/dwca-tools/internal/iotesting"
	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *ioarchive.Archive {
	fs := afero.NewMemMapFs()
	path := iotesting.FixtureArchive(t, fs)
	arc, err := ioarchive.Open(fs, path)
	require.NoError(t, err)
	t.Cleanup(func() { arc.Close() })
	return arc
}

func assertArchiveError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "error should be *gn.Error")
	assert.Equal(t, errcode.ArchiveFormatError, gnErr.Code)
}

func TestOpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ioarchive.Open(fs, "/absent.zip")
	assertArchiveError(t, err)

	require.NoError(t, afero.WriteFile(fs, "/plain.zip", []byte("not a zip"), 0644))
	_, err = ioarchive.Open(fs, "/plain.zip")
	assertArchiveError(t, err)
}

func TestArchiveTables(t *testing.T) {
	arc := openFixture(t)
	assert.Equal(t, iotesting.FixturePath, arc.Path())
	assert.Positive(t, arc.Size())

	tables, err := arc.Tables("meta.xml")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "occurrence", tables[0].Name)
	assert.Equal(t, iotesting.OccurrenceHeader, tables[0].ColumnNames())
	assert.Equal(t, "multimedia", tables[1].Name)
	assert.NoError(t, arc.CheckTables(tables))

	_, err = arc.Tables("manifest.xml")
	assertArchiveError(t, err)

	err = arc.CheckTables([]dwca.TableDefinition{{Name: "verbatim", Filename: "verbatim.txt"}})
	assertArchiveError(t, err)

	_, err = arc.OpenEntry("verbatim.txt")
	assertArchiveError(t, err)
}

func TestArchiveChunkReader(t *testing.T) {
	arc := openFixture(t)
	cr, err := arc.ChunkReader("occurrence.txt", 7)
	require.NoError(t, err)
	defer cr.Close()

	assert.Equal(t, iotesting.OccurrenceHeader, cr.Header())
	assert.Equal(t, []int{7, 7, 6}, batchSizes(t, cr))

	_, err = arc.ChunkReader("absent.txt", 7)
	assertArchiveError(t, err)
}

func TestCountLines(t *testing.T) {
	var read int
	n, err := ioarchive.CountLines(strings.NewReader("a\nb\nc\n"), func(i int) { read += i })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 6, read)

	n, err = ioarchive.CountLines(strings.NewReader("a\nb"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "last line without newline is not counted")

	big := strings.Repeat("0123456789abcde\n", 10_000)
	n, err = ioarchive.CountLines(strings.NewReader(big), nil)
	require.NoError(t, err)
	assert.Equal(t, 10_000, n)
}

func TestEstimateRows(t *testing.T) {
	arc := openFixture(t)
	tables, err := arc.Tables("meta.xml")
	require.NoError(t, err)
	tables = append(tables, dwca.TableDefinition{Name: "absent", Filename: "absent.txt"})

	var read atomic.Int64
	res := arc.EstimateRows(context.Background(), tables, 2, func(n int) {
		read.Add(int64(n))
	})

	assert.Equal(t, map[string]int{
		"occurrence": iotesting.OccurrenceRows + 1,
		"multimedia": iotesting.MultimediaRows + 1,
		"absent":     0,
	}, res)
	total := arc.EntrySize("occurrence.txt") + arc.EntrySize("multimedia.txt")
	assert.Equal(t, int64(total), read.Load())
}

func TestEstimateRowsCancelled(t *testing.T) {
	arc := openFixture(t)
	tables, err := arc.Tables("meta.xml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := arc.EstimateRows(ctx, tables, 4, nil)
	assert.Equal(t, 0, res["occurrence"])
	assert.Equal(t, 0, res["multimedia"])
}

func TestSummary(t *testing.T) {
	entries := []iotesting.Entry{
		{Name: "meta.xml", Content: "<archive/>"},
		{Name: "occurrence.txt", Content: "gbifID\n1\n"},
	}
	for i := range 7 {
		entries = append(entries, iotesting.Entry{
			Name:    fmt.Sprintf("dataset/%d.xml", i),
			Content: "<eml/>",
		})
	}
	entries = append(entries, iotesting.Entry{Name: "docs/readme.txt", Content: "hi"})

	fs := afero.NewMemMapFs()
	path := iotesting.WriteArchive(t, fs, "/a/test.zip", entries)
	arc, err := ioarchive.Open(fs, path)
	require.NoError(t, err)
	defer arc.Close()

	s := arc.Summary()
	assert.Equal(t, 10, s.TotalFiles)
	require.Len(t, s.RootFiles, 2)
	assert.Equal(t, "meta.xml", s.RootFiles[0].Name)
	assert.Equal(t, uint64(10), s.RootFiles[0].Size)

	require.Len(t, s.Dirs, 2)
	assert.Equal(t, "dataset", s.Dirs[0].Name)
	assert.Equal(t, 7, s.Dirs[0].Total)
	assert.Len(t, s.Dirs[0].Files, ioarchive.DirSampleSize)
	assert.True(t, s.Dirs[0].Sampled())
	assert.Equal(t, "docs", s.Dirs[1].Name)
	assert.False(t, s.Dirs[1].Sampled())
}
