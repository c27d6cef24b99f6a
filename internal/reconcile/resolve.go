package reconcile

// Flags marks how a slot differs from its row's canonical file.
type Flags uint8

const (
	FingerprintMismatch Flags = 1 << iota
	PathMismatch
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

func (f Flags) String() string {
	switch f {
	case 0:
		return "ok"
	case FingerprintMismatch:
		return "fingerprint"
	case PathMismatch:
		return "path"
	default:
		return "fingerprint+path"
	}
}

// Resolution is the canonical choice for a row. Canonical is the slot
// index of the reference file, or -1 for a row with no files. Flags is
// indexed like the row's slots; the canonical and empty slots are 0.
type Resolution struct {
	Canonical int
	Agree     int
	Flags     []Flags
}

// Resolve picks the file that agrees, by fingerprint and path, with the
// most files in the row. The first file with the highest count wins,
// and the scan stops early once a file agrees with at least half of
// manifestCount.
func (r *Row) Resolve(manifestCount int) Resolution {
	res := Resolution{Canonical: -1, Flags: make([]Flags, len(r.Slots))}

	for i, f := range r.Slots {
		if f == nil {
			continue
		}

		agree := 0
		for _, other := range r.Slots {
			if other != nil && other.Fingerprint == f.Fingerprint && other.FullPath == f.FullPath {
				agree++
			}
		}

		if agree <= res.Agree {
			continue
		}
		res.Agree = agree
		res.Canonical = i

		if float64(agree) >= float64(manifestCount)/2 {
			break
		}
	}

	if res.Canonical < 0 {
		return res
	}

	ref := r.Slots[res.Canonical]
	for i, f := range r.Slots {
		if f == nil || i == res.Canonical {
			continue
		}
		if f.Fingerprint != ref.Fingerprint {
			res.Flags[i] |= FingerprintMismatch
		}
		if f.FullPath != ref.FullPath {
			res.Flags[i] |= PathMismatch
		}
	}

	return res
}
