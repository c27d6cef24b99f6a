package repository

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"

	"github.com/NamanBalaji/tdiff/internal/engine"
	"github.com/NamanBalaji/tdiff/internal/logger"
)

const (
	manifestsBucket = "manifests"
	rawBucket       = "raw"
	reportsBucket   = "reports"
	metadataBucket  = "metadata"
	schemaVersion   = 1
)

var (
	// ErrManifestNotFound is returned when a manifest is not in the catalog
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrReportNotFound is returned when a report cannot be found
	ErrReportNotFound = errors.New("report not found")
)

// Options configures a BboltRepository.
type Options struct {
	StoreRaw         bool   // Keep the manifest bytes alongside the record
	CompressionLevel string // zstd level: fastest, default, better or best
}

// BboltRepository implements Repository on a bbolt database
type BboltRepository struct {
	db       *bbolt.DB
	storeRaw bool
	encoder  *zstd.Encoder
}

var _ Repository = (*BboltRepository)(nil)

// NewBboltRepository creates a new bbolt repository
func NewBboltRepository(dbPath string, opts Options) (*BboltRepository, error) {
	if opts.CompressionLevel == "" {
		opts.CompressionLevel = "default"
	}
	encoder, err := newCompressor(opts.CompressionLevel)
	if err != nil {
		return nil, err
	}

	options := &bbolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bbolt.Open(dbPath, 0o600, options)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &BboltRepository{
		db:       db,
		storeRaw: opts.StoreRaw,
		encoder:  encoder,
	}

	if err := repo.initialize(); err != nil {
		repo.Close()
		return nil, err
	}

	return repo, nil
}

// initialize sets up buckets and schema
func (r *BboltRepository) initialize() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{manifestsBucket, rawBucket, reportsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}

		metadataBucket, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		versionBytes := []byte(fmt.Sprintf("%d", schemaVersion))
		err = metadataBucket.Put([]byte("schema_version"), versionBytes)
		if err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}

		return nil
	})
}

// SaveManifest stores rec, replacing any record with the same hash. raw
// is compressed and kept when the repository stores raw manifests.
func (r *BboltRepository) SaveManifest(rec *ManifestRecord, raw []byte) error {
	if rec == nil {
		return errors.New("cannot save nil manifest")
	}
	key, err := hashKey(rec.Hash)
	if err != nil {
		return err
	}

	var compressed []byte
	if r.storeRaw && len(raw) > 0 {
		compressed = r.encoder.EncodeAll(raw, nil)
		rec.RawSize = len(raw)
	} else {
		rec.RawSize = 0
	}

	data, err := marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(manifestsBucket)).Put(key, data); err != nil {
			return fmt.Errorf("failed to save manifest: %w", err)
		}

		rawB := tx.Bucket([]byte(rawBucket))
		if compressed == nil {
			return rawB.Delete(key)
		}

		logger.Debugf("Storing %s: %d bytes, %d compressed", rec.Hash, len(raw), len(compressed))
		return rawB.Put(key, compressed)
	})
}

// FindManifest retrieves a manifest record by identity hash
func (r *BboltRepository) FindManifest(hash string) (*ManifestRecord, error) {
	key, err := hashKey(hash)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(manifestsBucket)).Get(key)
		if v == nil {
			return ErrManifestNotFound
		}
		// Only valid during the transaction
		data = slices.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := &ManifestRecord{}
	if err := unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return rec, nil
}

// HasManifest reports whether a manifest with hash is stored
func (r *BboltRepository) HasManifest(hash string) (bool, error) {
	key, err := hashKey(hash)
	if err != nil {
		return false, err
	}

	var found bool
	err = r.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(manifestsBucket)).Get(key) != nil
		return nil
	})

	return found, err
}

// FindAllManifests retrieves all manifest records, ordered by hash
func (r *BboltRepository) FindAllManifests() ([]*ManifestRecord, error) {
	var records []*ManifestRecord

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(manifestsBucket)).ForEach(func(k, v []byte) error {
			rec := &ManifestRecord{}
			if err := unmarshal(v, rec); err != nil {
				return fmt.Errorf("failed to unmarshal manifest %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteManifest removes a manifest record and its stored bytes
func (r *BboltRepository) DeleteManifest(hash string) error {
	key, err := hashKey(hash)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(manifestsBucket))
		if bucket.Get(key) == nil {
			return ErrManifestNotFound
		}

		if err := bucket.Delete(key); err != nil {
			return err
		}
		return tx.Bucket([]byte(rawBucket)).Delete(key)
	})
}

// RawManifest returns the stored bytes of a manifest
func (r *BboltRepository) RawManifest(hash string) ([]byte, error) {
	rec, err := r.FindManifest(hash)
	if err != nil {
		return nil, err
	}

	key, _ := hashKey(hash)

	var compressed []byte
	err = r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(rawBucket)).Get(key)
		if v == nil {
			return fmt.Errorf("%w: %s has no stored bytes", ErrManifestNotFound, rec.Hash)
		}
		compressed = slices.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decompress(compressed, rec.RawSize)
}

// SaveReport persists a comparison report
func (r *BboltRepository) SaveReport(report *engine.Report) error {
	if report == nil {
		return errors.New("cannot save nil report")
	}
	if report.ID == uuid.Nil {
		return errors.New("report ID cannot be empty")
	}

	report.PrepareForSerialization()

	data, err := marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket([]byte(reportsBucket)).Put([]byte(report.ID.String()), data)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		return nil
	})
}

// FindReport retrieves a report by ID
func (r *BboltRepository) FindReport(id uuid.UUID) (*engine.Report, error) {
	if id == uuid.Nil {
		return nil, errors.New("report ID cannot be empty")
	}

	var data []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(reportsBucket)).Get([]byte(id.String()))
		if v == nil {
			return ErrReportNotFound
		}
		data = slices.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &engine.Report{}
	if err := unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	report.RestoreFromSerialization()

	return report, nil
}

// FindAllReports retrieves all reports, oldest first
func (r *BboltRepository) FindAllReports() ([]*engine.Report, error) {
	var reports []*engine.Report

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(reportsBucket)).ForEach(func(k, v []byte) error {
			report := &engine.Report{}
			if err := unmarshal(v, report); err != nil {
				return fmt.Errorf("failed to unmarshal report %s: %w", k, err)
			}
			report.RestoreFromSerialization()
			reports = append(reports, report)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(reports, func(a, b *engine.Report) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return reports, nil
}

// Close closes the database
func (r *BboltRepository) Close() error {
	r.encoder.Close()
	return r.db.Close()
}

// hashKey normalizes a hex identity hash into a bucket key.
func hashKey(hash string) ([]byte, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return nil, errors.New("manifest hash cannot be empty")
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return nil, fmt.Errorf("manifest hash %q is not hex: %w", hash, err)
	}
	return []byte(hash), nil
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
