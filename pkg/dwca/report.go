package dwca

import "time"

// TableReport describes the result of loading one table.
type TableReport struct {
	Name      string   `json:"name"`
	Filename  string   `json:"filename"`
	Estimated int      `json:"estimatedRows"`
	Inserted  int64    `json:"insertedRows"`
	Columns   []string `json:"columns"`
	Indexes   []string `json:"indexes"`
}

// ConvertReport describes a finished conversion.
type ConvertReport struct {
	RunID    string        `json:"runId"`
	Engine   string        `json:"engine"`
	Tables   []TableReport `json:"tables"`
	Duration time.Duration `json:"duration"`
}

// TotalInserted returns the number of rows inserted into all tables.
func (r *ConvertReport) TotalInserted() int64 {
	var res int64
	for _, v := range r.Tables {
		res += v.Inserted
	}
	return res
}

// SQLTableSummary describes a table found in a destination database.
type SQLTableSummary struct {
	Name     string   `json:"name"`
	RowCount int64    `json:"rowCount"`
	Columns  []string `json:"columns"`
}

// ArchiveEntry is one file inside an archive.
type ArchiveEntry struct {
	Name string
	Size uint64
}
