// Package fingerprint computes the piece-hash checksum used to tell
// whether files from different torrents share content. Two torrents
// that pack the same file with the same piece length produce the same
// piece hashes over the file's range, so a checksum of that range is a
// cheap similarity signal. It is not a content hash.
package fingerprint

import "fmt"

const (
	// HashSize is the size of one piece hash.
	HashSize = 20

	modAdler = 65521
)

// Adler32 runs the Adler-32 rolling checksum over buf[begin:end],
// continuing from seed. A seed of 1 gives the standard checksum. The
// range is clamped to buf.
func Adler32(buf []byte, begin, end int, seed uint32) uint32 {
	s1 := seed & 0xffff
	s2 := seed >> 16

	begin = max(begin, 0)
	end = min(end, len(buf))

	for i := begin; i < end; i++ {
		s1 = (s1 + uint32(buf[i])) % modAdler
		s2 = (s2 + s1) % modAdler
	}

	return s2<<16 + s1
}

// Compute returns the fingerprint of a file of fileSize bytes that
// starts fileOffset bytes into the torrent's content. Empty files use
// the checksum of the whole pieces buffer. Otherwise the checksum
// covers the hashes of every piece the file touches, with the file's
// start and end positions inside their pieces mixed in so files that
// straddle pieces differently do not collide.
//
// Compute panics on a non-positive piece length or negative offset or
// size; manifests are validated before they get here.
func Compute(pieces []byte, pieceLength, fileOffset, fileSize int64) uint32 {
	if pieceLength <= 0 || fileOffset < 0 || fileSize < 0 {
		panic(fmt.Sprintf("fingerprint: invalid arguments pieceLength=%d offset=%d size=%d",
			pieceLength, fileOffset, fileSize))
	}

	if fileSize == 0 {
		return Whole(pieces)
	}

	end := fileOffset + fileSize
	begin := (fileOffset / pieceLength) * HashSize
	stop := ((end-1)/pieceLength + 1) * HashSize

	v := uint64(1) + uint64(fileOffset%pieceLength)
	v = uint64(Adler32(pieces, clampInt(begin), clampInt(stop), uint32(v)))
	v += uint64(end % pieceLength)

	return uint32(v)
}

// Whole returns the checksum of the entire pieces buffer.
func Whole(pieces []byte) uint32 {
	return Adler32(pieces, 0, len(pieces), 1)
}

func clampInt(n int64) int {
	const maxInt = int64(^uint(0) >> 1)
	if n > maxInt {
		return int(maxInt)
	}
	return int(n)
}
