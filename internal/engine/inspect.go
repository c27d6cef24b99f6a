package engine

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/NamanBalaji/tdiff/internal/config"
	"github.com/NamanBalaji/tdiff/internal/descriptor"
	"github.com/NamanBalaji/tdiff/internal/errors"
	"github.com/NamanBalaji/tdiff/pkg/torrent/metainfo"
)

// Inspection is a decoded manifest together with everything derived
// from it.
type Inspection struct {
	Source   string
	Manifest *metainfo.Manifest
	Hash     string // Identity hash, hex
	HashAlg  string
	InfoHash [20]byte // BitTorrent v1 info-hash
	Files    []*descriptor.File
}

// Magnet returns a magnet link for the manifest.
func (i *Inspection) Magnet() string {
	return metainfo.MagnetURI(i.InfoHash, i.Manifest.Name, i.Manifest.Trackers())
}

// Inspect decodes and parses one manifest. Failures are returned as
// a ManifestError with index -1.
func (e *Engine) Inspect(name string, data []byte) (*Inspection, error) {
	insp, err := e.inspect(name, data)
	if err != nil {
		return nil, errors.Classify(err, name, -1)
	}
	return insp, nil
}

func (e *Engine) inspect(name string, data []byte) (*Inspection, error) {
	m, err := metainfo.ParseManifestBytes(data)
	if err != nil {
		return nil, err
	}

	info, err := m.InfoBytes(data)
	if err != nil {
		return nil, err
	}

	hash, err := IdentityHash(e.config.IdentityHash, info)
	if err != nil {
		return nil, err
	}

	return &Inspection{
		Source:   name,
		Manifest: m,
		Hash:     hash,
		HashAlg:  e.config.IdentityHash,
		InfoHash: sha1.Sum(info),
		Files:    descriptor.Build(m),
	}, nil
}

// IdentityHash hashes an encoded info dictionary with alg and returns
// the digest as lowercase hex.
func IdentityHash(alg string, info []byte) (string, error) {
	switch alg {
	case config.HashSHA1:
		sum := sha1.Sum(info)
		return hex.EncodeToString(sum[:]), nil
	case config.HashBLAKE3:
		sum := blake3.Sum256(info)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrBadHashAlg, alg)
	}
}

func hexHash(h [20]byte) string {
	return hex.EncodeToString(h[:])
}
