package metainfo

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"math"

	"github.com/NamanBalaji/tdiff/pkg/torrent/bencode"
)

// HashSize is the size of one piece hash in the pieces string.
const HashSize = 20

// ErrInvalidManifest is returned for bencode that decodes cleanly but
// does not describe a usable torrent.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a typed view over a decoded torrent file. It describes
// either a single file (Length) or several files (Files), along with
// the concatenated piece hashes. The byte span of the encoded info
// dictionary is kept so callers can hash it.
type Manifest struct {
	Announce     string
	AnnounceList [][]string
	Comment      string
	CreatedBy    string
	CreationDate int64

	Name        string
	PieceLength int64
	Pieces      []byte

	// Single-file mode
	Length int64

	// Multi-file mode
	Files []File

	infoStart int
	infoEnd   int
}

// File is one entry of a multi-file torrent.
type File struct {
	Length int64
	Path   []string
}

// ParseManifestBytes decodes data and parses the result as a manifest.
func ParseManifestBytes(data []byte) (*Manifest, error) {
	v, err := bencode.Decode(data)
	if err != nil {
		return nil, err
	}

	return ParseManifest(v)
}

// ParseManifest builds a Manifest from a decoded top-level dictionary.
// An empty files list is treated the same as an absent one.
func ParseManifest(v bencode.Value) (*Manifest, error) {
	if v.Kind() != bencode.KindDict {
		return nil, invalid("top-level value is a %s, not a dictionary", v.Kind())
	}

	info, ok := v.Get("info")
	if !ok {
		return nil, invalid("missing info dictionary")
	}
	if info.Kind() != bencode.KindDict {
		return nil, invalid("info is a %s, not a dictionary", info.Kind())
	}

	m := &Manifest{}
	m.infoStart, m.infoEnd = info.Span()

	m.Announce = optionalText(v, "announce")
	m.Comment = optionalText(v, "comment")
	m.CreatedBy = optionalText(v, "created by")
	if n, ok := optionalInt(v, "creation date"); ok {
		m.CreationDate = n
	}
	m.AnnounceList = announceList(v)

	name, ok := text(info, "name")
	if !ok {
		return nil, invalid("missing name")
	}
	m.Name = name

	pieceLength, ok := optionalInt(info, "piece length")
	if !ok {
		return nil, invalid("missing piece length")
	}
	if pieceLength <= 0 {
		return nil, invalid("piece length %d is not positive", pieceLength)
	}
	m.PieceLength = pieceLength

	pv, ok := info.Get("pieces")
	if !ok {
		return nil, invalid("missing pieces")
	}
	pieces, ok := pv.Raw()
	if !ok {
		return nil, invalid("pieces is a %s, not a byte string", pv.Kind())
	}
	if len(pieces)%HashSize != 0 {
		return nil, invalid("pieces length %d not a multiple of %d", len(pieces), HashSize)
	}
	m.Pieces = pieces

	files, err := parseFiles(info)
	if err != nil {
		return nil, err
	}

	length, hasLength := optionalInt(info, "length")

	switch {
	case len(files) > 0 && hasLength:
		return nil, invalid("both length and files are present")
	case len(files) > 0:
		m.Files = files
	case hasLength:
		if length < 0 {
			return nil, invalid("negative length %d", length)
		}
		m.Length = length
	default:
		return nil, invalid("neither length nor files is present")
	}

	return m, nil
}

func parseFiles(info bencode.Value) ([]File, error) {
	fv, ok := info.Get("files")
	if !ok {
		return nil, nil
	}

	list, ok := fv.List()
	if !ok {
		return nil, invalid("files is a %s, not a list", fv.Kind())
	}

	files := make([]File, 0, len(list))
	var total int64
	for i, entry := range list {
		if entry.Kind() != bencode.KindDict {
			return nil, invalid("file %d is a %s, not a dictionary", i, entry.Kind())
		}

		length, ok := optionalInt(entry, "length")
		if !ok {
			return nil, invalid("file %d has no length", i)
		}
		if length < 0 {
			return nil, invalid("file %d has negative length %d", i, length)
		}
		if length > math.MaxInt64-total {
			return nil, invalid("total length overflows int64 at file %d", i)
		}
		total += length

		pv, ok := entry.Get("path")
		if !ok {
			return nil, invalid("file %d has no path", i)
		}
		segments, ok := pv.List()
		if !ok || len(segments) == 0 {
			return nil, invalid("file %d has an empty path", i)
		}

		path := make([]string, len(segments))
		for j, seg := range segments {
			s, ok := seg.Text()
			if !ok {
				return nil, invalid("file %d path segment %d is a %s", i, j, seg.Kind())
			}
			path[j] = s
		}

		files = append(files, File{Length: length, Path: path})
	}

	return files, nil
}

// IsMultiFile reports whether the manifest lists individual files.
func (m *Manifest) IsMultiFile() bool {
	return len(m.Files) > 0
}

// TotalSize returns the total size of all files in the torrent.
func (m *Manifest) TotalSize() int64 {
	if !m.IsMultiFile() {
		return m.Length
	}

	var total int64
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

// PieceCount returns the number of piece hashes.
func (m *Manifest) PieceCount() int {
	return len(m.Pieces) / HashSize
}

// InfoSpan returns the [start, end) offsets of the encoded info
// dictionary in the buffer the manifest was decoded from.
func (m *Manifest) InfoSpan() (start, end int) {
	return m.infoStart, m.infoEnd
}

// InfoBytes returns the encoded info dictionary from data, which must
// be the buffer the manifest was decoded from.
func (m *Manifest) InfoBytes(data []byte) ([]byte, error) {
	if m.infoEnd <= m.infoStart || m.infoEnd > len(data) {
		return nil, fmt.Errorf("info span [%d,%d) outside buffer of %d bytes", m.infoStart, m.infoEnd, len(data))
	}
	return data[m.infoStart:m.infoEnd], nil
}

// InfoHash returns the SHA-1 of the encoded info dictionary, the
// BitTorrent v1 info-hash.
func (m *Manifest) InfoHash(data []byte) ([20]byte, error) {
	info, err := m.InfoBytes(data)
	if err != nil {
		return [20]byte{}, err
	}
	return sha1.Sum(info), nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidManifest, fmt.Sprintf(format, args...))
}

func text(d bencode.Value, key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	return v.Text()
}

func optionalText(d bencode.Value, key string) string {
	s, _ := text(d, key)
	return s
}

func optionalInt(d bencode.Value, key string) (int64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	return v.Int()
}

func announceList(d bencode.Value) [][]string {
	v, ok := d.Get("announce-list")
	if !ok {
		return nil
	}
	tiers, ok := v.List()
	if !ok {
		return nil
	}

	var out [][]string
	for _, tier := range tiers {
		urls, ok := tier.List()
		if !ok {
			continue
		}
		var row []string
		for _, u := range urls {
			if s, ok := u.Text(); ok && s != "" {
				row = append(row, s)
			}
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}
