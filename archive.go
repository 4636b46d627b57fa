package datadriven

import (
	"os"
	"path/filepath"

	"golang.org/x/tools/txtar"
)

// ArchiveExt is the extension of fixture archives. Each member of an
// archive is a fixture file of its own.
const ArchiveExt = ".txtar"

// Archive is a txtar archive of fixture files. The archive comment is
// ignored by the harness and preserved on rewrite.
type Archive struct {
	Name  string
	Files []*TestFile // one per archive member, in archive order

	ar *txtar.Archive
}

// IsArchive reports whether path names a fixture archive.
func IsArchive(path string) bool {
	return filepath.Ext(path) == ArchiveExt
}

// ReadArchive reads and parses the fixture archive at path.
func ReadArchive(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseArchive(path, data)
}

// ParseArchive parses every member of a txtar archive as a fixture file.
// Members are named "<name>/<member>" in positions and errors.
func ParseArchive(name string, data []byte) (*Archive, error) {
	a := &Archive{Name: name, ar: txtar.Parse(data)}
	for _, m := range a.ar.Files {
		f, err := Parse(name+"/"+m.Name, m.Data)
		if err != nil {
			return nil, err
		}
		a.Files = append(a.Files, f)
	}
	return a, nil
}

// Replace sets the content of the i'th member, typically to the Output of
// a rewrite Result.
func (a *Archive) Replace(i int, data []byte) {
	a.ar.Files[i].Data = data
}

// Format returns the archive content.
func (a *Archive) Format() []byte {
	return txtar.Format(a.ar)
}
