package ioarchive

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gnames/dwca-tools/pkg/dwca"
)

// DwCTextNS is the namespace of Darwin Core text manifests.
const DwCTextNS = "http://rs.tdwg.org/dwc/text/"

type metaArchive struct {
	XMLName    xml.Name    `xml:"archive"`
	Core       *metaTable  `xml:"http://rs.tdwg.org/dwc/text/ core"`
	Extensions []metaTable `xml:"http://rs.tdwg.org/dwc/text/ extension"`
}

type metaTable struct {
	RowType string      `xml:"rowType,attr"`
	Files   []metaFiles `xml:"http://rs.tdwg.org/dwc/text/ files"`
	Fields  []metaField `xml:"http://rs.tdwg.org/dwc/text/ field"`
}

type metaFiles struct {
	Locations []string `xml:"http://rs.tdwg.org/dwc/text/ location"`
}

type metaField struct {
	Index *string `xml:"index,attr"`
	Term  *string `xml:"term,attr"`
}

// ParseMeta reads a manifest and returns the core table followed by
// extension tables. Table names come from data file names. When two
// tables get the same name, later ones receive "_2", "_3"... suffixes.
func ParseMeta(r io.Reader, metaFile string) ([]dwca.TableDefinition, error) {
	var ma metaArchive
	if err := xml.NewDecoder(r).Decode(&ma); err != nil {
		return nil, MetaFormatError(metaFile, err)
	}

	var res []dwca.TableDefinition
	if ma.Core != nil {
		td, err := ma.Core.definition(metaFile, true)
		if err != nil {
			return nil, err
		}
		res = append(res, td)
	}
	for _, v := range ma.Extensions {
		td, err := v.definition(metaFile, false)
		if err != nil {
			return nil, err
		}
		res = append(res, td)
	}

	if len(res) == 0 {
		slog.Warn("No tables found in manifest", "file", metaFile)
	}
	dedupNames(res)
	return res, nil
}

func (mt metaTable) definition(
	metaFile string,
	core bool,
) (dwca.TableDefinition, error) {
	location := dwca.UnknownLocation
	if len(mt.Files) > 0 && len(mt.Files[0].Locations) > 0 {
		if loc := strings.TrimSpace(mt.Files[0].Locations[0]); loc != "" {
			location = loc
		}
	}

	res := dwca.TableDefinition{
		Name:     dwca.TableNameFromFilename(location),
		Filename: location,
		RowType:  mt.RowType,
		Core:     core,
	}

	for _, f := range mt.Fields {
		if f.Term == nil || *f.Term == "" {
			continue
		}
		col := dwca.ColumnDefinition{
			Name: dwca.NameFromTerm(*f.Term),
			Term: *f.Term,
		}
		if f.Index != nil {
			idx, err := strconv.Atoi(strings.TrimSpace(*f.Index))
			if err != nil {
				err = fmt.Errorf("field %s: bad index %q: %w", *f.Term, *f.Index, err)
				return res, MetaFormatError(metaFile, err)
			}
			col.Index = &idx
		}
		res.Columns = append(res.Columns, col)
	}
	return res, nil
}

func dedupNames(tables []dwca.TableDefinition) {
	seen := make(map[string]int)
	for i := range tables {
		name := tables[i].Name
		seen[name]++
		if seen[name] == 1 {
			continue
		}
		newName := fmt.Sprintf("%s_%d", name, seen[name])
		for seen[newName] > 0 {
			seen[name]++
			newName = fmt.Sprintf("%s_%d", name, seen[name])
		}
		seen[newName] = 1
		slog.Warn("Duplicate table name renamed",
			"file", tables[i].Filename, "name", name, "new_name", newName)
		tables[i].Name = newName
	}
}
