package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/tdiff/internal/config"
	"github.com/NamanBalaji/tdiff/internal/errors"
	"github.com/NamanBalaji/tdiff/internal/reconcile"
)

// Config contains comparison engine configuration
type Config struct {
	MaxParallelDecodes int    // Manifests decoded at once, 0 for no limit
	IdentityHash       string // sha1 or blake3
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		MaxParallelDecodes: 4,
		IdentityHash:       config.HashSHA1,
	}
}

// Source is one manifest handed to Compare. Err, when set, records a
// failure to load the manifest; Data is then ignored.
type Source struct {
	Name string
	Data []byte
	Err  error
}

// ManifestResult summarizes a manifest that took part in a comparison.
type ManifestResult struct {
	Source      string `json:"source" cbor:"source"`
	Input       int    `json:"input" cbor:"input"` // Position in the Compare arguments
	Name        string `json:"name" cbor:"name"`
	Hash        string `json:"hash" cbor:"hash"`
	HashAlg     string `json:"hashAlg" cbor:"hashAlg"`
	InfoHash    string `json:"infoHash" cbor:"infoHash"`
	Magnet      string `json:"magnet,omitempty" cbor:"magnet,omitempty"`
	TotalSize   int64  `json:"totalSize" cbor:"totalSize"`
	PieceLength int64  `json:"pieceLength" cbor:"pieceLength"`
	FileCount   int    `json:"fileCount" cbor:"fileCount"`
	Known       bool   `json:"known" cbor:"known"`
}

// Cell is one manifest's file in a row. Present is false for a manifest
// with no file in the row.
type Cell struct {
	Present     bool            `json:"present" cbor:"present"`
	Index       int             `json:"index" cbor:"index"`
	Fingerprint uint32          `json:"fingerprint" cbor:"fingerprint"`
	Path        string          `json:"path" cbor:"path"`
	KeyName     string          `json:"keyName,omitempty" cbor:"keyName,omitempty"`
	Flags       reconcile.Flags `json:"flags" cbor:"flags"`
}

// Mismatch reports whether the cell differs from the row's canonical file.
func (c Cell) Mismatch() bool {
	return c.Present && c.Flags != 0
}

// RowResult is one aligned row. Cells is indexed like Report.Manifests.
type RowResult struct {
	Size      int64  `json:"size" cbor:"size"`
	Canonical int    `json:"canonical" cbor:"canonical"`
	Agree     int    `json:"agree" cbor:"agree"`
	Cells     []Cell `json:"cells" cbor:"cells"`
}

// Failure is the serializable form of a ManifestError.
type Failure struct {
	Source   string               `json:"source" cbor:"source"`
	Input    int                  `json:"input" cbor:"input"`
	Category errors.ErrorCategory `json:"category" cbor:"category"`
	Message  string               `json:"message" cbor:"message"`
	Time     time.Time            `json:"time" cbor:"time"`
}

// Report is the outcome of one comparison.
type Report struct {
	ID        uuid.UUID        `json:"id" cbor:"id"`
	CreatedAt time.Time        `json:"createdAt" cbor:"createdAt"`
	Manifests []ManifestResult `json:"manifests" cbor:"manifests"`
	Rows      []RowResult      `json:"rows" cbor:"rows"`

	Failures []*errors.ManifestError `json:"-" cbor:"-"`

	// Persisted form of Failures
	FailureRecords []Failure `json:"failures" cbor:"failures"`
}

// Mismatches returns the number of rows with at least one flagged cell
// or at least one manifest missing the file.
func (r *Report) Mismatches() int {
	n := 0
	for _, row := range r.Rows {
		for _, c := range row.Cells {
			if !c.Present || c.Flags != 0 {
				n++
				break
			}
		}
	}
	return n
}

// PrepareForSerialization fills FailureRecords from Failures.
func (r *Report) PrepareForSerialization() {
	r.FailureRecords = make([]Failure, 0, len(r.Failures))
	for _, f := range r.Failures {
		r.FailureRecords = append(r.FailureRecords, Failure{
			Source:   f.Source,
			Input:    f.Index,
			Category: f.Category,
			Message:  errorMessage(f.Err),
			Time:     f.Timestamp,
		})
	}
}

// RestoreFromSerialization rebuilds Failures from FailureRecords. The
// original error chains are not kept; each cause becomes a plain error.
func (r *Report) RestoreFromSerialization() {
	r.Failures = make([]*errors.ManifestError, 0, len(r.FailureRecords))
	for _, f := range r.FailureRecords {
		r.Failures = append(r.Failures, &errors.ManifestError{
			Err:       errors.New(f.Message),
			Category:  f.Category,
			Source:    f.Source,
			Index:     f.Input,
			Timestamp: f.Time,
		})
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
