package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/tdiff/internal/engine"
)

// Repository stores manifests and comparison reports.
type Repository interface {
	engine.Catalog

	SaveManifest(rec *ManifestRecord, raw []byte) error
	FindManifest(hash string) (*ManifestRecord, error)
	FindAllManifests() ([]*ManifestRecord, error)
	DeleteManifest(hash string) error
	RawManifest(hash string) ([]byte, error)

	SaveReport(report *engine.Report) error
	FindReport(id uuid.UUID) (*engine.Report, error)
	FindAllReports() ([]*engine.Report, error)

	Close() error
}

// ManifestRecord is the stored summary of a manifest.
type ManifestRecord struct {
	Hash        string       `cbor:"hash"`
	HashAlg     string       `cbor:"hashAlg"`
	InfoHash    string       `cbor:"infoHash"`
	Name        string       `cbor:"name"`
	Source      string       `cbor:"source"`
	TotalSize   int64        `cbor:"totalSize"`
	PieceLength int64        `cbor:"pieceLength"`
	PieceCount  int          `cbor:"pieceCount"`
	Trackers    []string     `cbor:"trackers,omitempty"`
	Files       []FileRecord `cbor:"files"`
	AddedAt     time.Time    `cbor:"addedAt"`

	// Uncompressed size of the stored manifest, 0 when not stored
	RawSize int `cbor:"rawSize,omitempty"`
}

// FileRecord is one file of a stored manifest.
type FileRecord struct {
	Index       int    `cbor:"index"`
	Path        string `cbor:"path"`
	Size        int64  `cbor:"size"`
	Fingerprint uint32 `cbor:"fingerprint"`
}

// NewManifestRecord summarizes an inspected manifest for storage.
func NewManifestRecord(insp *engine.Inspection) *ManifestRecord {
	m := insp.Manifest

	rec := &ManifestRecord{
		Hash:        insp.Hash,
		HashAlg:     insp.HashAlg,
		InfoHash:    hexString(insp.InfoHash[:]),
		Name:        m.Name,
		Source:      insp.Source,
		TotalSize:   m.TotalSize(),
		PieceLength: m.PieceLength,
		PieceCount:  m.PieceCount(),
		Trackers:    m.Trackers(),
		Files:       make([]FileRecord, 0, len(insp.Files)),
		AddedAt:     time.Now(),
	}

	for _, f := range insp.Files {
		rec.Files = append(rec.Files, FileRecord{
			Index:       f.Index,
			Path:        f.FullPath,
			Size:        f.Size,
			Fingerprint: f.Fingerprint,
		})
	}

	return rec
}
