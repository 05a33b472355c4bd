// Package ioarchive reads Darwin Core Archives: zip containers with an
// XML manifest and tab-delimited data files. Files are accessed through
// afero, so archives can live on disk or in memory.
package ioarchive

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/gnames/dwca-tools/pkg/dwca"
	"github.com/spf13/afero"
)

// Archive is an opened Darwin Core Archive.
type Archive struct {
	fs      afero.Fs
	path    string
	file    afero.File
	size    int64
	zr      *zip.Reader
	entries map[string]*zip.File
}

// Open opens a zip archive at path in fs.
func Open(fs afero.Fs, path string) (*Archive, error) {
	file, zr, size, err := openZip(fs, path)
	if err != nil {
		return nil, err
	}
	res := &Archive{
		fs:      fs,
		path:    path,
		file:    file,
		size:    size,
		zr:      zr,
		entries: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		res.entries[f.Name] = f
	}
	return res, nil
}

func openZip(fs afero.Fs, path string) (afero.File, *zip.Reader, int64, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, nil, 0, OpenArchiveError(path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, 0, OpenArchiveError(path, err)
	}
	zr, err := zip.NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, nil, 0, OpenArchiveError(path, err)
	}
	return file, zr, info.Size(), nil
}

// Close releases the archive file.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Path returns the location of the archive.
func (a *Archive) Path() string {
	return a.path
}

// Size returns the size of the archive file in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Entries returns files of the archive in their zip order.
// Directory entries are skipped.
func (a *Archive) Entries() []dwca.ArchiveEntry {
	res := make([]dwca.ArchiveEntry, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		res = append(res, dwca.ArchiveEntry{
			Name: f.Name,
			Size: f.UncompressedSize64,
		})
	}
	return res
}

// HasEntry checks if the archive contains a file.
func (a *Archive) HasEntry(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// EntrySize returns the uncompressed size of a file, or 0 if the file
// does not exist.
func (a *Archive) EntrySize(name string) uint64 {
	if f, ok := a.entries[name]; ok {
		return f.UncompressedSize64
	}
	return 0
}

// OpenEntry opens a file of the archive for reading.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, MissingEntryError(a.path, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, ReadEntryError(name, err)
	}
	return rc, nil
}

// openIndependent opens a file through a new handle of the archive, so
// it can be read concurrently with other entries.
func (a *Archive) openIndependent(name string) (io.ReadCloser, error) {
	if !a.HasEntry(name) {
		return nil, MissingEntryError(a.path, name)
	}
	file, zr, _, err := openZip(a.fs, a.path)
	if err != nil {
		return nil, err
	}
	var rc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == name {
			rc, err = f.Open()
			break
		}
	}
	if rc == nil || err != nil {
		file.Close()
		return nil, ReadEntryError(name, err)
	}
	return &multiCloser{Reader: rc, closers: []io.Closer{rc, file}}, nil
}

// Tables reads the manifest entry and returns table definitions.
func (a *Archive) Tables(metaFile string) ([]dwca.TableDefinition, error) {
	rc, err := a.OpenEntry(metaFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseMeta(rc, metaFile)
}

// CheckTables verifies that every table has its data file in the archive.
func (a *Archive) CheckTables(tables []dwca.TableDefinition) error {
	for _, v := range tables {
		if !a.HasEntry(v.Filename) {
			return MissingEntryError(a.path, v.Filename)
		}
	}
	return nil
}

// ChunkReader opens a data file and reads its header.
func (a *Archive) ChunkReader(name string, batchSize int) (*ChunkReader, error) {
	rc, err := a.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	res, err := NewChunkReader(rc, name, batchSize)
	if err != nil {
		rc.Close()
		return nil, err
	}
	res.closer = rc
	return res, nil
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var res error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && res == nil {
			res = err
		}
	}
	return res
}
