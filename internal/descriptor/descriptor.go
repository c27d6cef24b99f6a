package descriptor

import (
	"fmt"
	"strings"

	"github.com/NamanBalaji/tdiff/pkg/torrent/fingerprint"
	"github.com/NamanBalaji/tdiff/pkg/torrent/metainfo"
)

// SingleFileIndex is the Index of the only descriptor of a single-file
// manifest.
const SingleFileIndex = -1

// File describes one file of one manifest in the form the aligner
// compares.
type File struct {
	FullPath    string
	FileName    string
	DirPath     string
	Size        int64
	Fingerprint uint32

	// Name and ExtName split FileName at its last dot; ExtName keeps
	// the dot.
	Name       string
	ExtName    string
	NameTokens []string

	// KeyName is the distinguishing token run this file shares with
	// siblings, or "" when there is none. It is a matching aid only.
	KeyName string

	Index int
}

// Build returns one descriptor per file of m, in file order. Key names
// are assigned for multi-file manifests.
func Build(m *metainfo.Manifest) []*File {
	if !m.IsMultiFile() {
		f := newFile(m.Name, "", m.Name, m.Length, fingerprint.Whole(m.Pieces), SingleFileIndex)
		return []*File{f}
	}

	files := make([]*File, 0, len(m.Files))
	var offset int64
	for i, entry := range m.Files {
		files = append(files, FromEntry(m, i, offset))
		offset += entry.Length
	}

	AssignKeyNames(files)

	return files
}

// FromEntry builds the descriptor of m.Files[index], which starts
// offset bytes into the torrent's content.
func FromEntry(m *metainfo.Manifest, index int, offset int64) *File {
	entry := m.Files[index]
	if entry.Length < 0 {
		panic(fmt.Sprintf("descriptor: file %d has negative length %d", index, entry.Length))
	}

	last := len(entry.Path) - 1
	fileName := entry.Path[last]
	dirPath := strings.Join(entry.Path[:last], "/")
	fullPath := strings.Join(entry.Path, "/")

	fp := fingerprint.Compute(m.Pieces, m.PieceLength, offset, entry.Length)

	return newFile(fullPath, dirPath, fileName, entry.Length, fp, index)
}

func newFile(fullPath, dirPath, fileName string, size int64, fp uint32, index int) *File {
	name, ext := SplitExt(fileName)
	return &File{
		FullPath:    fullPath,
		FileName:    fileName,
		DirPath:     dirPath,
		Size:        size,
		Fingerprint: fp,
		Name:        name,
		ExtName:     ext,
		NameTokens:  Tokenize(name),
		Index:       index,
	}
}

// SplitExt splits fileName at its last dot. Names without a dot, or
// whose only dot is leading, have no extension.
func SplitExt(fileName string) (name, ext string) {
	i := strings.LastIndexByte(fileName, '.')
	if i <= 0 {
		return fileName, ""
	}
	return fileName[:i], fileName[i:]
}

// Tokenize splits name on dots and spaces. Empty tokens are kept.
func Tokenize(name string) []string {
	return strings.Split(strings.ReplaceAll(name, " ", "."), ".")
}
