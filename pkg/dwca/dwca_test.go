package dwca_test

import (
	"testing"

	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int {
	return &i
}

func TestNameFromTerm(t *testing.T) {
	tests := []struct {
		term, name string
	}{
		{"http://rs.tdwg.org/dwc/terms/scientificName", "scientificName"},
		{"http://rs.gbif.org/terms/1.0/gbifID", "gbifID"},
		{"http://purl.org/dc/terms/references", "references"},
		{"gbifID", "gbifID"},
		{"http://example.org/terms/", ""},
	}

	for _, v := range tests {
		res := dwca.NameFromTerm(v.term)
		assert.Equal(t, v.name, res, v.term)
		assert.Equal(t, res, dwca.NameFromTerm(res), "idempotent "+v.term)
	}
}

func TestTableNameFromFilename(t *testing.T) {
	tests := []struct {
		msg, loc, name string
	}{
		{"plain", "occurrence.txt", "occurrence"},
		{"capitals", "Multimedia.TXT", "multimedia"},
		{"directory", "data/verbatim.txt", "verbatim"},
		{"many dots", "occurrence.2024.txt", "occurrence"},
		{"url", "http://example.org/files/occurrence.txt?v=1", "occurrence"},
		{"unknown", dwca.UnknownLocation, "unknown"},
	}

	for _, v := range tests {
		assert.Equal(t, v.name, dwca.TableNameFromFilename(v.loc), v.msg)
	}
}

func TestTableNameFromRowType(t *testing.T) {
	assert.Equal(t, "occurrence",
		dwca.TableNameFromRowType("http://rs.tdwg.org/dwc/terms/Occurrence"))
	assert.Equal(t, "multimedia",
		dwca.TableNameFromRowType("http://rs.gbif.org/terms/1.0/Multimedia"))
}

func TestIsSafeIdentifier(t *testing.T) {
	tests := []struct {
		s  string
		ok bool
	}{
		{"occurrence", true},
		{"gbifID", true},
		{"_private", true},
		{"col_2", true},
		{"2col", false},
		{"", false},
		{"occ; DROP TABLE x", false},
		{"occurrence-2", false},
		{`na"me`, false},
		{"имя", false},
	}

	for _, v := range tests {
		assert.Equal(t, v.ok, dwca.IsSafeIdentifier(v.s), v.s)
	}
}

func TestTableDefinition(t *testing.T) {
	td := dwca.TableDefinition{
		Name:     "occurrence",
		Filename: "occurrence.txt",
		RowType:  "http://rs.tdwg.org/dwc/terms/Occurrence",
		Columns: []dwca.ColumnDefinition{
			{Index: intPtr(0), Name: "gbifID"},
			{Index: nil, Name: "datasetName"},
			{Index: intPtr(1), Name: "scientificName"},
			{Index: intPtr(2), Name: "ScientificName"},
		},
	}

	assert.Equal(t,
		[]string{"gbifID", "datasetName", "scientificName", "ScientificName"},
		td.ColumnNames())
	assert.Equal(t, []string{"gbifID", "scientificName"}, td.StorageColumns())
	assert.True(t, td.HasColumn("datasetName"))
	assert.False(t, td.HasColumn("gbifid"))
	assert.Equal(t, "occurrence", td.RowTypeName())

	tables := []dwca.TableDefinition{td, {Name: "multimedia"}}
	res, ok := dwca.FindTable(tables, "multimedia")
	assert.True(t, ok)
	assert.Equal(t, "multimedia", res.Name)
	_, ok = dwca.FindTable(tables, "verbatim")
	assert.False(t, ok)
}

func TestGroupBy(t *testing.T) {
	gb, ok := dwca.NewGroupBy("verbatimScientificName")
	assert.True(t, ok)
	assert.Equal(t, dwca.GroupByVerbatimScientificName, gb)

	_, ok = dwca.NewGroupBy("ScientificName")
	assert.False(t, ok)
}

func TestSortTaxaResults(t *testing.T) {
	res := []dwca.TaxaResult{
		{Name: "Vanessa cardui", OccurrenceCount: 5},
		{Name: "Papilio polyxenes", OccurrenceCount: 1},
		{Name: "Danaus plexippus", OccurrenceCount: 5},
		{Name: "", OccurrenceCount: 1},
		{Name: "Papilio machaon", OccurrenceCount: 4},
	}
	dwca.SortTaxaResults(res)

	var names []string
	for _, v := range res {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{
		"Danaus plexippus", "Vanessa cardui", "Papilio machaon",
		"", "Papilio polyxenes",
	}, names)

	summary := dwca.TaxaSummary{Results: res, TotalGroups: len(res)}
	summary.Limit(0)
	assert.Len(t, summary.Results, 5)
	summary.Limit(2)
	assert.Len(t, summary.Results, 2)
	assert.Equal(t, 5, summary.TotalGroups)
}

func TestConvertReport(t *testing.T) {
	r := dwca.ConvertReport{Tables: []dwca.TableReport{
		{Name: "occurrence", Inserted: 20},
		{Name: "multimedia", Inserted: 10},
	}}
	assert.Equal(t, int64(30), r.TotalInserted())
}
