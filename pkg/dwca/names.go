package dwca

import (
	"net/url"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NameFromTerm returns the last segment of a term URI.
func NameFromTerm(term string) string {
	if i := strings.LastIndex(term, "/"); i >= 0 {
		return term[i+1:]
	}
	return term
}

// TableNameFromFilename derives a table name from a file location:
// directories and everything after the first dot are removed, the rest
// is lower-cased.
func TableNameFromFilename(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil {
		p = u.Path
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.Index(p, "."); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(p)
}

// TableNameFromRowType derives a name from a row type URI.
func TableNameFromRowType(rowType string) string {
	return strings.ToLower(NameFromTerm(rowType))
}

// IsSafeIdentifier checks that a name can be used as an SQL identifier:
// letters, digits and underscores, not starting with a digit.
func IsSafeIdentifier(s string) bool {
	return identRe.MatchString(s)
}
