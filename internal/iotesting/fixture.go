// Package iotesting provides shared test utilities: Darwin Core Archive
// fixtures and test database locations.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const (
	// FixturePath is where FixtureArchive writes the default fixture.
	FixturePath = "/fixtures/test_dwca.zip"

	// TestDatabaseEnv names an environment variable with a PostgreSQL or
	// MySQL URL for integration tests.
	TestDatabaseEnv = "DWCA_TEST_DATABASE_URL"

	// OccurrenceRows and MultimediaRows are the number of data rows in
	// the default fixture.
	OccurrenceRows = 20
	MultimediaRows = 10
)

// Entry is a file inside a test archive.
type Entry struct {
	Name    string
	Content string
}

// MetaTable describes a core or extension element of a manifest.
type MetaTable struct {
	Extension bool
	RowType   string
	Location  string
	// Terms are field terms, indexed in order. An empty string creates a
	// field without a term.
	Terms []string
}

// MetaXML renders a manifest for tables.
func MetaXML(tables ...MetaTable) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<archive xmlns="http://rs.tdwg.org/dwc/text/" metadata="eml.xml">` + "\n")
	for _, t := range tables {
		tag := "core"
		if t.Extension {
			tag = "extension"
		}
		fmt.Fprintf(&sb,
			`  <%s encoding="UTF-8" fieldsTerminatedBy="\t" linesTerminatedBy="\n" `+
				`fieldsEnclosedBy="" ignoreHeaderLines="1" rowType="%s">`+"\n",
			tag, t.RowType)
		fmt.Fprintf(&sb, "    <files>\n      <location>%s</location>\n    </files>\n",
			t.Location)
		for i, term := range t.Terms {
			if term == "" {
				fmt.Fprintf(&sb, "    <field index=\"%d\"/>\n", i)
				continue
			}
			fmt.Fprintf(&sb, "    <field index=\"%d\" term=\"%s\"/>\n", i, term)
		}
		fmt.Fprintf(&sb, "  </%s>\n", tag)
	}
	sb.WriteString("</archive>\n")
	return sb.String()
}

// TSV joins a header and rows into tab-delimited text.
func TSV(header []string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(header, "\t"))
	sb.WriteByte('\n')
	for _, row := range rows {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// OccurrenceHeader is the header of the fixture occurrence file.
var OccurrenceHeader = []string{
	"gbifID", "scientificName", "decimalLatitude", "decimalLongitude",
	"eventDate", "kingdom", "family", "taxonID", "verbatimScientificName",
}

// MultimediaHeader is the header of the fixture multimedia file.
var MultimediaHeader = []string{
	"gbifID", "identifier", "references", "title", "created",
}

// Occurrences returns the fixture occurrence rows: 4 species plus
// Papilio polyxenes, so that the verbatim name "Swallowtail" maps to
// 2 taxonIDs.
func Occurrences() [][]string {
	return [][]string{
		{"1001", "Danaus plexippus", "45.1", "-72.9", "2024-06-01", "Animalia", "Nymphalidae", "1", "Monarch Butterfly"},
		{"1002", "Vanessa cardui", "45.2", "-72.8", "2024-06-02", "Animalia", "Nymphalidae", "2", "Vanessa cardui"},
		{"1003", "Papilio machaon", "45.3", "-72.7", "2024-06-03", "Animalia", "Papilionidae", "3", "Swallowtail"},
		{"1004", "Pieris rapae", "45.4", "-72.6", "2024-06-04", "Animalia", "Pieridae", "4", "Cabbage White"},
		{"1005", "Danaus plexippus", "45.5", "-72.5", "2024-06-05", "Animalia", "Nymphalidae", "1", "Monarch Butterfly"},
		{"1006", "Vanessa cardui", "45.6", "-72.4", "2024-06-06", "Animalia", "Nymphalidae", "2", "Painted Lady"},
		{"1007", "Papilio machaon", "45.7", "-72.3", "2024-06-07", "Animalia", "Papilionidae", "3", "Swallowtail"},
		{"1008", "Pieris rapae", "45.8", "-72.2", "2024-06-08", "Animalia", "Pieridae", "4", "Cabbage White"},
		{"1009", "Danaus plexippus", "45.9", "-72.1", "2024-06-09", "Animalia", "Nymphalidae", "1", "Danaus plexippus"},
		{"1010", "Vanessa cardui", "46.0", "-72.0", "2024-06-10", "Animalia", "Nymphalidae", "2", "Painted Lady"},
		{"1011", "Papilio machaon", "46.1", "-71.9", "2024-06-11", "Animalia", "Papilionidae", "3", "Papilio machaon"},
		{"1012", "Pieris rapae", "46.2", "-71.8", "2024-06-12", "Animalia", "Pieridae", "4", "Pieris rapae"},
		{"1013", "Danaus plexippus", "46.3", "-71.7", "2024-06-13", "Animalia", "Nymphalidae", "1", "Monarch Butterfly"},
		{"1014", "Vanessa cardui", "46.4", "-71.6", "2024-06-14", "Animalia", "Nymphalidae", "2", "Vanessa cardui"},
		{"1015", "Papilio machaon", "46.5", "-71.5", "2024-06-15", "Animalia", "Papilionidae", "3", "Swallowtail"},
		{"1016", "Pieris rapae", "46.6", "-71.4", "2024-06-16", "Animalia", "Pieridae", "4", "Cabbage White"},
		{"1017", "Danaus plexippus", "46.7", "-71.3", "2024-06-17", "Animalia", "Nymphalidae", "1", "Monarch"},
		{"1018", "Vanessa cardui", "46.8", "-71.2", "2024-06-18", "Animalia", "Nymphalidae", "2", "Painted Lady"},
		{"1019", "Papilio polyxenes", "46.9", "-71.1", "2024-06-19", "Animalia", "Papilionidae", "5", "Swallowtail"},
		{"1020", "Pieris rapae", "47.0", "-71.0", "2024-06-20", "Animalia", "Pieridae", "4", "Pieris rapae"},
	}
}

// Multimedia returns one image row for each of gbifIDs 1001-1010.
func Multimedia() [][]string {
	res := make([][]string, 0, MultimediaRows)
	for i := range MultimediaRows {
		gid := 1001 + i
		res = append(res, []string{
			fmt.Sprint(gid),
			fmt.Sprintf("https://example.com/img/%d.jpg", gid),
			fmt.Sprintf("https://example.com/ref/%d", gid),
			fmt.Sprintf("Photo of specimen %d", gid),
			fmt.Sprintf("2024-06-%02d", i+1),
		})
	}
	return res
}

// FixtureMeta is the manifest of the default fixture.
func FixtureMeta() string {
	return MetaXML(
		MetaTable{
			RowType:  "http://rs.tdwg.org/dwc/terms/Occurrence",
			Location: "occurrence.txt",
			Terms: []string{
				"http://rs.gbif.org/terms/1.0/gbifID",
				"http://rs.tdwg.org/dwc/terms/scientificName",
				"http://rs.tdwg.org/dwc/terms/decimalLatitude",
				"http://rs.tdwg.org/dwc/terms/decimalLongitude",
				"http://rs.tdwg.org/dwc/terms/eventDate",
				"http://rs.tdwg.org/dwc/terms/kingdom",
				"http://rs.tdwg.org/dwc/terms/family",
				"http://rs.tdwg.org/dwc/terms/taxonID",
				"http://rs.tdwg.org/dwc/terms/verbatimScientificName",
			},
		},
		MetaTable{
			Extension: true,
			RowType:   "http://rs.gbif.org/terms/1.0/Multimedia",
			Location:  "multimedia.txt",
			Terms: []string{
				"http://rs.gbif.org/terms/1.0/gbifID",
				"http://purl.org/dc/terms/identifier",
				"http://purl.org/dc/terms/references",
				"http://purl.org/dc/terms/title",
				"http://purl.org/dc/terms/created",
			},
		},
	)
}

// FixtureEntries returns files of the default fixture archive.
func FixtureEntries() []Entry {
	return []Entry{
		{Name: "meta.xml", Content: FixtureMeta()},
		{Name: "occurrence.txt", Content: TSV(OccurrenceHeader, Occurrences())},
		{Name: "multimedia.txt", Content: TSV(MultimediaHeader, Multimedia())},
	}
}

// BuildArchive zips entries in the given order.
func BuildArchive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, err
		}
		if _, err = w.Write([]byte(e.Content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteArchive writes an archive of entries to fs and returns its path.
func WriteArchive(t testing.TB, fs afero.Fs, p string, entries []Entry) string {
	t.Helper()

	data, err := BuildArchive(entries)
	if err != nil {
		t.Fatalf("Failed to build archive: %v", err)
	}
	if err = fs.MkdirAll(path.Dir(filepath.ToSlash(p)), 0755); err != nil {
		t.Fatalf("Failed to create archive dir: %v", err)
	}
	if err = afero.WriteFile(fs, p, data, 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return p
}

// FixtureArchive writes the default fixture to FixturePath in fs.
func FixtureArchive(t testing.TB, fs afero.Fs) string {
	t.Helper()
	return WriteArchive(t, fs, FixturePath, FixtureEntries())
}

// FixtureFile writes the default fixture into a temporary directory of
// the real file system.
func FixtureFile(t testing.TB) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test_dwca.zip")
	return WriteArchive(t, afero.NewOsFs(), p, FixtureEntries())
}

// SQLiteURL returns a URL of a fresh SQLite file in a temporary directory.
func SQLiteURL(t testing.TB) string {
	t.Helper()
	return "sqlite:///" + filepath.Join(t.TempDir(), "test.db")
}

// ServerURL returns the URL of an external test database, skipping the
// test when it is not configured or when tests run in short mode.
func ServerURL(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := os.Getenv(TestDatabaseEnv)
	if url == "" {
		t.Skipf("Skipping integration test, %s is not set", TestDatabaseEnv)
	}
	return url
}
