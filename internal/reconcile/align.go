// Package reconcile lines up the files of several torrents that
// describe the same content. Files are grouped into rows, at most one
// per torrent, using a greedy pass over the torrents in order; the
// result depends on that order and is not a globally optimal
// assignment.
package reconcile

import (
	"fmt"
	"slices"

	"github.com/NamanBalaji/tdiff/internal/descriptor"
)

// Row groups files of equal size that are believed to be the same
// file. Slots is indexed by manifest position; empty slots are nil.
type Row struct {
	Size  int64
	Slots []*descriptor.File
}

func newRow(size int64, manifests int) *Row {
	return &Row{Size: size, Slots: make([]*descriptor.File, manifests)}
}

// First returns the first occupied slot.
func (r *Row) First() *descriptor.File {
	for _, f := range r.Slots {
		if f != nil {
			return f
		}
	}
	return nil
}

// Filled returns the number of occupied slots.
func (r *Row) Filled() int {
	n := 0
	for _, f := range r.Slots {
		if f != nil {
			n++
		}
	}
	return n
}

// Aligner accumulates rows one manifest at a time. It is not safe for
// concurrent use; alignment depends on the order files are added.
type Aligner struct {
	manifests int
	rows      []*Row
}

// NewAligner returns an aligner for the given number of manifests.
func NewAligner(manifests int) *Aligner {
	if manifests <= 0 {
		panic(fmt.Sprintf("reconcile: manifest count %d is not positive", manifests))
	}
	return &Aligner{manifests: manifests}
}

// Add places every file of manifest m, in index order.
func (a *Aligner) Add(m int, files []*descriptor.File) {
	ordered := slices.Clone(files)
	slices.SortStableFunc(ordered, func(x, y *descriptor.File) int {
		return x.Index - y.Index
	})

	for _, f := range ordered {
		a.Place(m, f)
	}
}

// Place puts f into the best row that has no file from manifest m yet,
// or into a new row. Only the first occupied slot of a candidate row is
// scored.
func (a *Aligner) Place(m int, f *descriptor.File) {
	if m < 0 || m >= a.manifests {
		panic(fmt.Sprintf("reconcile: manifest %d out of range [0,%d)", m, a.manifests))
	}
	if f.Size < 0 {
		panic(fmt.Sprintf("reconcile: file %q has negative size %d", f.FullPath, f.Size))
	}

	var best *Row
	bestScore := 0.0

	for _, row := range a.rows {
		if row.Size != f.Size || row.Slots[m] != nil {
			continue
		}

		other := row.First()
		if other == nil {
			continue
		}

		if score := Compare(f, other); score > bestScore {
			bestScore = score
			best = row
		}
	}

	if best == nil {
		best = newRow(f.Size, a.manifests)
		a.rows = append(a.rows, best)
	}

	best.Slots[m] = f
}

// Rows returns the rows in creation order.
func (a *Aligner) Rows() []*Row {
	return a.rows
}

// Align aligns the descriptor sets, one per manifest, in the given
// order.
func Align(sets [][]*descriptor.File) []*Row {
	if len(sets) == 0 {
		return nil
	}

	a := NewAligner(len(sets))
	for m, files := range sets {
		a.Add(m, files)
	}
	return a.Rows()
}
