package ioarchive

import (
	"strings"

	"github.com/gnames/dwca-tools/pkg/dwca"
)

// DirSampleSize is the number of files shown for a large directory.
const DirSampleSize = 5

// DirSummary describes a top-level directory of an archive.
type DirSummary struct {
	Name string
	// Files are all files of the directory, or the first DirSampleSize
	// if there are more of them.
	Files []dwca.ArchiveEntry
	// Total is the number of files in the directory.
	Total int
}

// Sampled tells if only a part of the files is shown.
func (d DirSummary) Sampled() bool {
	return d.Total > len(d.Files)
}

// ZipSummary groups archive files into root files and top-level
// directories.
type ZipSummary struct {
	RootFiles  []dwca.ArchiveEntry
	Dirs       []DirSummary
	TotalFiles int
}

// Summary describes the layout of the archive. Directories keep the
// order in which they first appear.
func (a *Archive) Summary() ZipSummary {
	var res ZipSummary
	dirIdx := make(map[string]int)
	for _, e := range a.Entries() {
		res.TotalFiles++
		dir, _, ok := strings.Cut(e.Name, "/")
		if !ok {
			res.RootFiles = append(res.RootFiles, e)
			continue
		}
		i, ok := dirIdx[dir]
		if !ok {
			i = len(res.Dirs)
			dirIdx[dir] = i
			res.Dirs = append(res.Dirs, DirSummary{Name: dir})
		}
		d := &res.Dirs[i]
		d.Total++
		if len(d.Files) < DirSampleSize {
			d.Files = append(d.Files, e)
		}
	}
	return res
}
