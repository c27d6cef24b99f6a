package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/tdiff/internal/errors"
	"github.com/NamanBalaji/tdiff/internal/logger"
	"github.com/NamanBalaji/tdiff/internal/reconcile"
)

// Catalog answers whether a manifest identity hash has been stored.
type Catalog interface {
	HasManifest(hash string) (bool, error)
}

type Engine struct {
	config  *Config
	catalog Catalog
}

// New creates a new Engine instance. catalog may be nil.
func New(config *Config, catalog Catalog) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if _, err := IdentityHash(config.IdentityHash, nil); err != nil {
		return nil, err
	}

	return &Engine{config: config, catalog: catalog}, nil
}

// Compare decodes every source and reconciles the files of those that
// parse. A source that fails is recorded in Report.Failures and left
// out of the rows; the others are unaffected. Rows follow the order of
// sources. Compare only returns an error for an empty input or a
// cancelled context.
func (e *Engine) Compare(ctx context.Context, sources []Source) (*Report, error) {
	if len(sources) == 0 {
		return nil, errors.ErrNoSources
	}

	inspections, failures, err := e.decodeAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
	}

	var ok []*Inspection
	for i := range sources {
		if failures[i] != nil {
			logger.Warnf("Skipping manifest: %v", failures[i])
			report.Failures = append(report.Failures, failures[i])
			continue
		}
		ok = append(ok, inspections[i])
		report.Manifests = append(report.Manifests, e.manifestResult(i, inspections[i]))
	}

	if len(ok) == 0 {
		logger.Warnf("Comparison %s: none of %d manifests could be parsed", report.ID, len(sources))
		return report, nil
	}

	aligner := reconcile.NewAligner(len(ok))
	for m, insp := range ok {
		aligner.Add(m, insp.Files)
	}

	for _, row := range aligner.Rows() {
		report.Rows = append(report.Rows, rowResult(row, len(ok)))
	}

	logger.Infof("Comparison %s: %d manifests, %d failed, %d rows, %d with differences",
		report.ID, len(ok), len(report.Failures), len(report.Rows), report.Mismatches())

	return report, nil
}

// decodeAll inspects the sources concurrently. Per-source failures are
// returned by position; only cancellation fails the whole call.
func (e *Engine) decodeAll(ctx context.Context, sources []Source) ([]*Inspection, []*errors.ManifestError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.NewContextError(err, "compare", -1)
	}

	inspections := make([]*Inspection, len(sources))
	failures := make([]*errors.ManifestError, len(sources))

	g, ctx := errgroup.WithContext(ctx)

	limit := e.config.MaxParallelDecodes
	if limit <= 0 {
		limit = len(sources)
	}
	sem := make(chan struct{}, limit)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return errors.NewContextError(ctx.Err(), src.Name, i)
			}

			if src.Err != nil {
				failures[i] = errors.Classify(src.Err, src.Name, i)
				return nil
			}

			logger.Debugf("Decoding %s (%d bytes)", src.Name, len(src.Data))

			insp, err := e.inspect(src.Name, src.Data)
			if err != nil {
				failures[i] = errors.Classify(err, src.Name, i)
				return nil
			}
			inspections[i] = insp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return inspections, failures, nil
}

func (e *Engine) manifestResult(input int, insp *Inspection) ManifestResult {
	m := insp.Manifest
	res := ManifestResult{
		Source:      insp.Source,
		Input:       input,
		Name:        m.Name,
		Hash:        insp.Hash,
		HashAlg:     insp.HashAlg,
		InfoHash:    hexHash(insp.InfoHash),
		Magnet:      insp.Magnet(),
		TotalSize:   m.TotalSize(),
		PieceLength: m.PieceLength,
		FileCount:   len(insp.Files),
	}

	if e.catalog != nil {
		known, err := e.catalog.HasManifest(insp.Hash)
		if err != nil {
			logger.Warnf("Catalog lookup for %s failed: %v", insp.Hash, err)
		}
		res.Known = known
	}

	return res
}

func rowResult(row *reconcile.Row, manifests int) RowResult {
	res := row.Resolve(manifests)

	out := RowResult{
		Size:      row.Size,
		Canonical: res.Canonical,
		Agree:     res.Agree,
		Cells:     make([]Cell, len(row.Slots)),
	}

	for i, f := range row.Slots {
		if f == nil {
			continue
		}
		out.Cells[i] = Cell{
			Present:     true,
			Index:       f.Index,
			Fingerprint: f.Fingerprint,
			Path:        f.FullPath,
			KeyName:     f.KeyName,
			Flags:       res.Flags[i],
		}
	}

	return out
}
