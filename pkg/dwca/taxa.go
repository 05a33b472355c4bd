package dwca

import (
	"cmp"
	"slices"
)

// GroupBy is a column used to group occurrences into taxa.
type GroupBy string

const (
	GroupByScientificName         GroupBy = "scientificName"
	GroupByVerbatimScientificName GroupBy = "verbatimScientificName"
)

// NewGroupBy converts a string to GroupBy, returning false for
// unsupported columns.
func NewGroupBy(s string) (GroupBy, bool) {
	switch gb := GroupBy(s); gb {
	case GroupByScientificName, GroupByVerbatimScientificName:
		return gb, true
	}
	return "", false
}

func (g GroupBy) String() string {
	return string(g)
}

// Column names used by the taxa summary.
const (
	ColGbifID         = "gbifID"
	ColTaxonID        = "taxonID"
	ColScientificName = "scientificName"
	ColTaxonRank      = "taxonRank"
	ColFamily         = "family"
)

// Names of tables the taxa summary works with.
const (
	OccurrenceTable = "occurrence"
	MultimediaTable = "multimedia"
	TaxaTable       = "taxa"
)

// TaxaResult is a summary of one group of occurrences.
type TaxaResult struct {
	Name            string `json:"name"`
	OccurrenceCount int    `json:"occurrenceCount"`
	ImageCount      int    `json:"imageCount"`
	TaxonIDCount    int    `json:"taxonIdCount"`
	SciNameCount    int    `json:"scientificNameCount"`
}

// TaxaSummary is the result of a taxa aggregation.
type TaxaSummary struct {
	// GroupBy is the column used for grouping.
	GroupBy GroupBy `json:"groupBy"`

	// Results are sorted by occurrence count descending, then by name.
	Results []TaxaResult `json:"results"`

	// TotalGroups is the number of groups before the limit was applied.
	TotalGroups int `json:"totalGroups"`

	// TotalOccurrences is the number of counted occurrence rows.
	TotalOccurrences int `json:"totalOccurrences"`

	MismatchedNames bool `json:"mismatchedNames"`
	ImageCounts     bool `json:"imageCounts"`

	// Warning is a non-fatal note for the user.
	Warning string `json:"warning,omitempty"`
}

// SortTaxaResults orders results by occurrence count descending,
// ties are broken by name ascending.
func SortTaxaResults(res []TaxaResult) {
	slices.SortStableFunc(res, func(a, b TaxaResult) int {
		if c := cmp.Compare(b.OccurrenceCount, a.OccurrenceCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// Limit truncates results to n entries. Zero or negative n keeps all.
func (s *TaxaSummary) Limit(n int) {
	if n > 0 && len(s.Results) > n {
		s.Results = s.Results[:n]
	}
}
