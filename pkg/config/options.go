package config

import (
	"maps"
	"strings"

	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/gnames/gn"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseURL sets the connection string of the destination database.
func OptDatabaseURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database URL", s) {
			c.Database.URL = s
		}
	}
}

// OptDatabaseBatchSize sets the number of rows per transfer unit.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Database.BatchSize = i
		}
	}
}

// OptConvertColumnsOfInterest replaces per-table column subsets.
// Table names are lower-cased, because they are derived from file names
// the same way.
func OptConvertColumnsOfInterest(m map[string][]string) Option {
	return func(c *Config) {
		if m != nil {
			c.Convert.ColumnsOfInterest = normalizeTableMap(m)
		}
	}
}

// OptConvertIndexes replaces per-table lists of indexed columns.
func OptConvertIndexes(m map[string][]string) Option {
	return func(c *Config) {
		if m != nil {
			c.Convert.Indexes = normalizeTableMap(m)
		}
	}
}

// OptConvertDisableIntegrity sets whether referential integrity is turned
// off during PostgreSQL bulk copy.
func OptConvertDisableIntegrity(b *bool) Option {
	return func(c *Config) {
		if b != nil {
			c.Convert.DisableIntegrity = b
		}
	}
}

// OptTaxaGroupBy sets the grouping column of the taxa summary.
// Valid values: "scientificName", "verbatimScientificName".
// Runtime-only field - not in ToOptions().
func OptTaxaGroupBy(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if gb, ok := dwca.NewGroupBy(s); ok {
			c.Taxa.GroupBy = gb
			return
		}
		isValidEnum("Taxa.GroupBy", s)
	}
}

// OptTaxaSpeciesOnly limits the taxa summary to species-rank records.
// Runtime-only field - not in ToOptions().
func OptTaxaSpeciesOnly(b bool) Option {
	return func(c *Config) {
		c.Taxa.SpeciesOnly = b
	}
}

// OptTaxaMismatchedNames enables distinct taxonID and scientificName
// counts per group.
// Runtime-only field - not in ToOptions().
func OptTaxaMismatchedNames(b bool) Option {
	return func(c *Config) {
		c.Taxa.MismatchedNames = b
	}
}

// OptTaxaImageCounts enables image counts per group.
// Runtime-only field - not in ToOptions().
func OptTaxaImageCounts(b bool) Option {
	return func(c *Config) {
		c.Taxa.ImageCounts = b
	}
}

// OptTaxaCanonical groups names by their canonical form.
// Runtime-only field - not in ToOptions().
func OptTaxaCanonical(b bool) Option {
	return func(c *Config) {
		c.Taxa.Canonical = b
	}
}

// OptTaxaLimit sets the maximum number of taxa in a summary.
// Zero means all taxa.
// Runtime-only field - not in ToOptions().
func OptTaxaLimit(i int) Option {
	return func(c *Config) {
		if i < 0 {
			gn.Warn("<em>Taxa Limit</em> cannot be negative, ignoring %d", i)
			return
		}
		c.Taxa.Limit = i
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptMetaFile sets the name of the manifest entry inside archives.
func OptMetaFile(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Meta File", s) {
			c.MetaFile = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers.
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}

func normalizeTableMap(m map[string][]string) map[string][]string {
	res := make(map[string][]string, len(m))
	for k, v := range maps.All(m) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		var cols []string
		for _, col := range v {
			col = strings.TrimSpace(col)
			if col != "" {
				cols = append(cols, col)
			}
		}
		res[k] = cols
	}
	return res
}
