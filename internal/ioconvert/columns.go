package ioconvert

import (
	"strings"

	"github.com/gnames/dwca-tools/pkg/db"
)

// selectColumns decides which fields of a data file are transferred.
// A header field is kept if the destination table has a column with the
// same name ignoring case, and if it is in interest (when interest is not
// nil). Returned names are the stored ones, positions point to header
// fields. The synthetic id column never receives data.
func selectColumns(header, stored, interest []string) ([]string, []int) {
	storedByLower := make(map[string]string, len(stored))
	for _, v := range stored {
		if strings.EqualFold(v, db.IDColumn) {
			continue
		}
		l := strings.ToLower(v)
		storedByLower[l] = v
	}

	var wanted map[string]struct{}
	if interest != nil {
		wanted = make(map[string]struct{}, len(interest))
		for _, v := range interest {
			wanted[strings.ToLower(v)] = struct{}{}
		}
	}

	var cols []string
	var idx []int
	used := make(map[string]struct{}, len(header))
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		name, ok := storedByLower[l]
		if !ok {
			continue
		}
		if _, dup := used[l]; dup {
			continue
		}
		if wanted != nil {
			if _, ok = wanted[l]; !ok {
				continue
			}
		}
		used[l] = struct{}{}
		cols = append(cols, name)
		idx = append(idx, i)
	}
	return cols, idx
}

// project picks fields of row at positions idx.
func project(row []string, idx []int) []string {
	res := make([]string, len(idx))
	for i, v := range idx {
		res[i] = row[v]
	}
	return res
}
